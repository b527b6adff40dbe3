package usecase

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/cardlens/backend/internal/domain"
)

// ResultSelector runs both enhancement strategies and their recognitions as
// two independent pipelines and keeps the higher-confidence outcome.
//
// Both strategies always run for every upload; there is no upfront classifier
// deciding which card type we are looking at. Letting downstream confidence
// arbitrate is cheaper and more robust than maintaining a card-type detector.
type ResultSelector struct {
	enhancer   domain.Enhancer
	recognizer domain.Recognizer
	debug      bool
}

// NewResultSelector creates a selector over the given enhancer and pooled recognizer
func NewResultSelector(enhancer domain.Enhancer, recognizer domain.Recognizer, debug bool) *ResultSelector {
	return &ResultSelector{
		enhancer:   enhancer,
		recognizer: recognizer,
		debug:      debug,
	}
}

// Select runs the two pipelines concurrently and returns the winner.
// A failing branch degrades to an empty zero-confidence outcome instead of
// cancelling its sibling; on an exact confidence tie the light strategy wins.
func (s *ResultSelector) Select(ctx context.Context, raw []byte) domain.OcrOutcome {
	strategies := [2]domain.EnhanceStrategy{domain.StrategyLight, domain.StrategyDark}
	outcomes := [2]domain.OcrOutcome{}

	g, gctx := errgroup.WithContext(ctx)
	for i, strategy := range strategies {
		i, strategy := i, strategy
		g.Go(func() error {
			outcomes[i] = s.runPipeline(gctx, raw, strategy)
			return nil
		})
	}
	// Branches never return errors; Wait only joins them
	_ = g.Wait()

	winner := outcomes[0]
	if outcomes[1].Confidence > outcomes[0].Confidence {
		winner = outcomes[1]
	}

	if s.debug {
		log.Printf("[OCR] light=%.4f dark=%.4f winner=%s",
			outcomes[0].Confidence, outcomes[1].Confidence, winner.Strategy)
	}

	return winner
}

// runPipeline executes enhance -> recognize -> score for one strategy.
// Enhancement must finish before its own recognition starts; failures are
// absorbed into an empty outcome.
func (s *ResultSelector) runPipeline(ctx context.Context, raw []byte, strategy domain.EnhanceStrategy) domain.OcrOutcome {
	enhanced, err := s.enhancer.Enhance(raw, strategy)
	if err != nil {
		log.Printf("[OCR] %s enhancement failed: %v", strategy, err)
		return domain.OcrOutcome{Strategy: strategy}
	}

	attempt := s.recognizer.Recognize(ctx, enhanced)

	return domain.OcrOutcome{
		RawText:    attempt.Transcript,
		Confidence: Score(attempt.Tokens),
		Strategy:   strategy,
	}
}
