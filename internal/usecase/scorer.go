package usecase

import "github.com/cardlens/backend/internal/domain"

// Score reduces a recognition attempt's per-token raw confidences (0-100)
// into a single normalized scalar in [0,1].
//
// The mean is weighted by token length so that longer correctly recognized
// spans count more; one short, spuriously high-confidence token cannot
// dominate the attempt. Lengths are counted in runes, not bytes, so Hangul
// tokens weigh the same as Latin tokens of equal length.
//
// Zero tokens or zero total characters score 0 - never NaN, never a panic.
func Score(tokens []domain.RecognitionToken) float64 {
	var weighted, total float64
	for _, token := range tokens {
		length := float64(len([]rune(token.Text)))
		if length == 0 {
			continue
		}
		weighted += token.ConfidenceRaw * length
		total += length
	}

	if total == 0 {
		return 0
	}

	confidence := weighted / total / 100.0
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
