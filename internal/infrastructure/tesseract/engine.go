package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/cardlens/backend/internal/domain"
)

// Config holds the per-process engine settings. The language set is chosen
// once at startup and shared by every engine instance.
type Config struct {
	Languages []string
	DPI       int
}

// Engine wraps a single gosseract client configured once at construction:
// sparse-text segmentation for card layouts, a fixed DPI hint, and preserved
// inter-word spacing. Instances support sequential reuse only; the pool
// serializes access.
type Engine struct {
	client *gosseract.Client
}

// NewEngine constructs and configures one Tesseract-backed engine
func NewEngine(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()

	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	// Business cards are sparse text scattered over the card, not a page of prose
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page seg mode: %w", err)
	}

	if cfg.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(cfg.DPI)); err != nil {
			client.Close()
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	if err := client.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), "1"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set interword spacing: %w", err)
	}

	return &Engine{client: client}, nil
}

// Recognize runs OCR over the enhanced image and returns the transcript with
// per-word raw confidences (0-100)
func (e *Engine) Recognize(ctx context.Context, imageData []byte) (domain.RecognitionAttempt, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecognitionAttempt{}, err
	}

	if err := e.client.SetImageFromBytes(imageData); err != nil {
		return domain.RecognitionAttempt{}, fmt.Errorf("set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return domain.RecognitionAttempt{}, fmt.Errorf("recognize text: %w", err)
	}

	return domain.RecognitionAttempt{
		Transcript: strings.TrimSpace(text),
		Tokens:     extractTokens(e.client),
	}, nil
}

// Close releases the underlying Tesseract client
func (e *Engine) Close() error {
	return e.client.Close()
}

// extractTokens pulls word-level confidences out of the recognizer. When word
// boxes are unavailable the attempt keeps its transcript but carries no
// tokens, which downstream scoring treats as zero confidence.
func extractTokens(client *gosseract.Client) []domain.RecognitionToken {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}

	tokens := make([]domain.RecognitionToken, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, domain.RecognitionToken{
			Text:          word,
			ConfidenceRaw: b.Confidence,
		})
	}
	return tokens
}
