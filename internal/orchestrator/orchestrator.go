// Package orchestrator fans one prompt set out to the enabled model registry
// and collects structured forecasts. Failures are confined to the failing
// model; the batch always returns whatever succeeded within the deadline.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"polyforecast/internal/models"
)

// Invoker is the transport used to call one model. The production
// implementation is the OpenAI-compatible chat client; tests stub it.
type Invoker interface {
	Invoke(ctx context.Context, endpoint, apiKey, model, prompt string) (string, error)
}

type Orchestrator struct {
	registry *Registry
	invoker  Invoker
	logger   *zap.Logger

	modelTimeout   time.Duration
	batchTimeout   time.Duration
	maxConcurrency int
}

func New(registry *Registry, invoker Invoker, logger *zap.Logger, modelTimeout, batchTimeout time.Duration, maxConcurrency int) *Orchestrator {
	if modelTimeout <= 0 {
		modelTimeout = 15 * time.Second
	}
	if batchTimeout <= 0 {
		batchTimeout = 2 * modelTimeout
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Orchestrator{
		registry:       registry,
		invoker:        invoker,
		logger:         logger,
		modelTimeout:   modelTimeout,
		batchTimeout:   batchTimeout,
		maxConcurrency: maxConcurrency,
	}
}

// DispatchAll runs every enabled model against its prompt under the batch
// deadline (bounded further by whatever remains on ctx). The result always
// has one entry per enabled model, in lexicographic ID order; failed calls
// carry Err instead of a probability.
func (o *Orchestrator) DispatchAll(ctx context.Context, prompts map[string]string) []models.ModelResponse {
	ctx, cancel := context.WithTimeout(ctx, o.batchTimeout)
	defer cancel()

	ids := o.registry.IDs()
	responses := make([]models.ModelResponse, len(ids))

	sem := make(chan struct{}, o.maxConcurrency)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(slot int, modelID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				responses[slot] = models.ModelResponse{ModelID: modelID, Err: ctx.Err()}
				return
			}
			responses[slot] = o.callWithFallback(ctx, modelID, prompts[modelID])
		}(i, id)
	}
	wg.Wait()
	return responses
}

// callWithFallback tries the primary model through the retry schedule, then
// its configured fallback once with whatever budget remains.
func (o *Orchestrator) callWithFallback(ctx context.Context, modelID, prompt string) models.ModelResponse {
	model, ok := o.registry.Get(modelID)
	if !ok {
		return models.ModelResponse{ModelID: modelID, Err: fmt.Errorf("unknown model %q", modelID)}
	}
	resp := o.callWithRetries(ctx, model, model.ID, prompt)
	if resp.Err == nil || model.Fallback == "" || ctx.Err() != nil {
		return resp
	}

	o.logger.Warn("model failed, trying fallback",
		zap.String("component", "orchestrator"),
		zap.String("model", model.ID),
		zap.String("fallback", model.Fallback),
		zap.Error(resp.Err))
	fb := o.callOnce(ctx, model, model.Fallback, prompt)
	if fb.Err != nil {
		// Surface the primary failure; the fallback only adds noise.
		return resp
	}
	fb.ModelID = model.ID
	return fb
}

// callWithRetries runs up to three attempts (initial plus two retries with
// one and two second pauses), all bounded by the batch deadline.
func (o *Orchestrator) callWithRetries(ctx context.Context, model Model, modelName, prompt string) models.ModelResponse {
	var resp models.ModelResponse
	attempt := 0
	operation := func() error {
		attempt++
		resp = o.callOnce(ctx, model, modelName, prompt)
		if resp.Err != nil {
			o.logger.Debug("model attempt failed",
				zap.String("component", "orchestrator"),
				zap.String("model", modelName),
				zap.Int("attempt", attempt),
				zap.Error(resp.Err))
			return resp.Err
		}
		return nil
	}
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = time.Second
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.MaxInterval = 2 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(schedule, 2), ctx)
	_ = backoff.Retry(operation, policy)
	return resp
}

// callOnce performs a single invocation under the per-model timeout and
// parses the completion.
func (o *Orchestrator) callOnce(ctx context.Context, model Model, modelName, prompt string) models.ModelResponse {
	callCtx, cancel := context.WithTimeout(ctx, o.modelTimeout)
	defer cancel()

	started := time.Now()
	raw, err := o.invoker.Invoke(callCtx, model.Endpoint, model.APIKey, modelName, prompt)
	latency := time.Since(started)
	if err != nil {
		return models.ModelResponse{ModelID: model.ID, Latency: latency, Err: err}
	}

	parsed, err := parseModelOutput(raw)
	if err != nil {
		return models.ModelResponse{ModelID: model.ID, Latency: latency, Err: err}
	}
	o.logger.Debug("model responded",
		zap.String("component", "orchestrator"),
		zap.String("model", modelName),
		zap.Float64("probability", parsed.Probability),
		zap.String("confidence", string(parsed.Confidence)),
		zap.Duration("latency", latency))
	return models.ModelResponse{
		ModelID:     model.ID,
		Probability: parsed.Probability,
		Confidence:  parsed.Confidence,
		Reasoning:   parsed.Reasoning,
		Latency:     latency,
	}
}
