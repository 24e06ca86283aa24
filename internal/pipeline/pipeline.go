// Package pipeline coordinates one prediction end to end: resolve, classify,
// enrich, dispatch the ensemble, fuse, normalize and evaluate. The pipeline
// degrades rather than fails: a partial result with diagnostics beats an
// error whenever any stage produced something usable.
package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"polyforecast/internal/classifier"
	"polyforecast/internal/config"
	"polyforecast/internal/enrich"
	"polyforecast/internal/fusion"
	"polyforecast/internal/gateway"
	"polyforecast/internal/models"
	"polyforecast/internal/orchestrator"
	"polyforecast/internal/prompt"
	"polyforecast/internal/trade"
)

// Sink receives finished predictions for persistence. Implementations must
// not block the caller; dropping a record is acceptable.
type Sink interface {
	Record(ctx context.Context, p *models.Prediction)
}

type Pipeline struct {
	gateway      *gateway.Gateway
	classifier   *classifier.Classifier
	enricher     *enrich.Manager
	orchestrator *orchestrator.Orchestrator
	registry     *orchestrator.Registry
	fusion       *fusion.Engine
	trade        *trade.Evaluator
	sink         Sink
	logger       *zap.Logger

	totalTimeout       time.Duration
	lowProbThreshold   float64
	allowMock          bool
	outcomeConcurrency int
}

func New(
	gw *gateway.Gateway,
	cls *classifier.Classifier,
	enricher *enrich.Manager,
	orch *orchestrator.Orchestrator,
	registry *orchestrator.Registry,
	fuse *fusion.Engine,
	eval *trade.Evaluator,
	sink Sink,
	cfg config.Config,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		gateway:            gw,
		classifier:         cls,
		enricher:           enricher,
		orchestrator:       orch,
		registry:           registry,
		fusion:             fuse,
		trade:              eval,
		sink:               sink,
		logger:             logger,
		totalTimeout:       cfg.Timeouts.Total,
		lowProbThreshold:   cfg.Gateway.LowProbabilityThreshold,
		allowMock:          cfg.Gateway.AllowMock,
		outcomeConcurrency: cfg.Gateway.MaxOutcomeConcurrency,
	}
}

// Predict runs the full pipeline for one raw reference under the total
// deadline. The only hard errors are an unparseable reference, a resolution
// failure with mocks disabled, and the low-probability screen; everything
// after resolution degrades into the prediction envelope.
func (p *Pipeline) Predict(ctx context.Context, rawRef, requesterID string) (*models.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, p.totalTimeout)
	defer cancel()
	started := time.Now()

	ref, err := gateway.ParseReference(rawRef)
	if err != nil {
		return nil, err
	}

	ev, err := p.gateway.Resolve(ctx, ref)
	if err != nil {
		if !p.allowMock || !errors.Is(err, gateway.ErrAllSourcesFailed) {
			return nil, err
		}
		p.logger.Warn("resolution failed, using mock event",
			zap.String("component", "pipeline"),
			zap.String("reference", rawRef),
			zap.Error(err))
		ev = gateway.MockEvent(ref, time.Now().UTC())
	}

	if err := p.gateway.CheckLowProbability(ctx, ev, p.lowProbThreshold); err != nil {
		return nil, err
	}

	p.classifier.Classify(ev)
	if p.enricher != nil {
		ev.Enrichment = p.enricher.Context(ctx, ev)
	}

	dimensions := classifier.AssignDimensions(p.registry.IDs(), ev.Category)
	composer := prompt.NewComposer(ev, dimensions)

	outcomes := p.dispatchOutcomes(ctx, ev, composer)

	prediction := &models.Prediction{
		Event:       ev,
		Outcomes:    outcomes,
		RequesterID: requesterID,
		TimedOut:    ctx.Err() != nil,
		Timestamp:   time.Now().UTC(),
	}
	prediction.Normalization = p.fusion.NormalizeAll(ev, prediction.Outcomes)
	prediction.TradeSignal = p.selectSignal(ev, prediction.Outcomes)

	p.logger.Info("prediction complete",
		zap.String("component", "pipeline"),
		zap.String("slug", ev.MarketSlug),
		zap.Int("outcomes", len(prediction.Outcomes)),
		zap.Bool("timed_out", prediction.TimedOut),
		zap.Duration("elapsed", time.Since(started)))

	if p.sink != nil && !ev.IsMock {
		p.sink.Record(ctx, prediction)
	}
	return prediction, nil
}

// dispatchOutcomes runs the ensemble per outcome, at most the configured
// number of outcomes in flight. Result order matches the event's outcome
// order regardless of completion order.
func (p *Pipeline) dispatchOutcomes(ctx context.Context, ev *models.Event, composer *prompt.Composer) []models.FusedOutcome {
	fused := make([]models.FusedOutcome, len(ev.Outcomes))

	limit := p.outcomeConcurrency
	if limit <= 0 {
		limit = 3
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := range ev.Outcomes {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				fused[idx] = p.fusion.FuseOutcome(ev.Outcomes[idx].Name, nil, p.marketProb(ev, idx), ev.Category)
				return
			}

			prompts := make(map[string]string, p.registry.Len())
			for _, id := range p.registry.IDs() {
				prompts[id] = composer.Build(id, idx)
			}
			responses := p.orchestrator.DispatchAll(ctx, prompts)
			fused[idx] = p.fusion.FuseOutcome(ev.Outcomes[idx].Name, responses, p.marketProb(ev, idx), ev.Category)
		}(i)
	}
	wg.Wait()
	return fused
}

func (p *Pipeline) marketProb(ev *models.Event, idx int) *float64 {
	if idx >= 0 && idx < len(ev.Outcomes) && ev.Outcomes[idx].MarketProbability != nil {
		return ev.Outcomes[idx].MarketProbability
	}
	return ev.MarketProbability
}

// selectSignal picks the event-level signal: the sole outcome for binary
// events, otherwise the evaluable outcome with the largest absolute edge.
func (p *Pipeline) selectSignal(ev *models.Event, outcomes []models.FusedOutcome) *models.TradeSignal {
	var best *models.TradeSignal
	bestEdge := math.Inf(-1)
	for i := range outcomes {
		signal := p.trade.Evaluate(ev, outcomes[i], p.marketProb(ev, i))
		if signal == nil {
			continue
		}
		if !ev.IsMultiOption() {
			return signal
		}
		if edge := math.Abs(signal.EV); edge > bestEdge {
			bestEdge = edge
			best = signal
		}
	}
	return best
}
