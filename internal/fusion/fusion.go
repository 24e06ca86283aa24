// Package fusion combines the model ensemble's forecasts for each outcome
// into a single calibrated probability with an uncertainty estimate.
package fusion

import (
	"go.uber.org/zap"

	"polyforecast/internal/config"
	"polyforecast/internal/models"
)

// disagreementScale converts a percentage-point standard deviation into the
// [0,1] disagreement index.
const disagreementScale = 50.0

// WeightProvider supplies per-model base weights. The orchestrator registry
// implements it.
type WeightProvider interface {
	Weight(modelID string) float64
}

type Engine struct {
	weights    WeightProvider
	logger     *zap.Logger
	alpha      float64
	confidence map[string]float64
	// calibrators scale the fused model-only probability per category,
	// clamped back into [0,100]. Identity when the category is absent.
	calibrators  map[string]float64
	weightSource string
}

func NewEngine(weights WeightProvider, cfg config.FusionConfig, logger *zap.Logger) *Engine {
	confidence := cfg.ConfidenceFactors
	if len(confidence) == 0 {
		confidence = map[string]float64{"low": 0.5, "medium": 1.0, "high": 1.5}
	}
	source := cfg.WeightSource
	if source == "" {
		source = "config"
	}
	return &Engine{
		weights:      weights,
		logger:       logger,
		alpha:        cfg.MarketBlendAlpha,
		confidence:   confidence,
		calibrators:  cfg.Calibrators,
		weightSource: source,
	}
}

// FuseOutcome folds the valid responses for one outcome into a FusedOutcome.
// With no valid responses the probabilities stay nil (BlendedProb falls back
// to the market price when one exists) so downstream stages can report the
// absence instead of inventing a number.
func (e *Engine) FuseOutcome(outcomeName string, responses []models.ModelResponse, marketProb *float64, category models.Category) models.FusedOutcome {
	fused := models.FusedOutcome{
		OutcomeName:  outcomeName,
		WeightSource: e.weightSource,
	}

	var probs, weights []float64
	var valid []models.ModelResponse
	for _, r := range responses {
		if !r.Valid() {
			continue
		}
		w := e.weights.Weight(r.ModelID) * e.confidenceFactor(r.Confidence)
		if w <= 0 {
			e.logger.Warn("response dropped",
				zap.String("component", "fusion"),
				zap.String("model", r.ModelID),
				zap.Error(&models.InvariantViolation{What: "fusion weight", Value: w}))
			continue
		}
		probs = append(probs, r.Probability)
		weights = append(weights, w)
		valid = append(valid, r)
	}
	fused.ModelCount = len(valid)

	if len(valid) == 0 {
		fused.Summary = "no model predictions available"
		if marketProb != nil {
			blended := *marketProb
			fused.BlendedProb = &blended
		}
		return fused
	}

	mean, totalWeight := weightedMean(probs, weights)
	if totalWeight <= 0 {
		return fused
	}
	calibrated, applied := e.calibrate(mean, category)
	fused.ModelOnlyProb = &calibrated
	fused.CalibrationApplied = applied
	fused.Uncertainty = weightedStd(probs, weights, mean)
	fused.Disagreement = clamp(fused.Uncertainty/disagreementScale, 0, 1)
	fused.Summary = summarizeReasonings(valid)

	blended := calibrated
	if marketProb != nil {
		blended = e.alpha*calibrated + (1-e.alpha)**marketProb
	}
	blended = clamp(blended, 0, 100)
	fused.BlendedProb = &blended
	return fused
}

func (e *Engine) confidenceFactor(c models.Confidence) float64 {
	if f, ok := e.confidence[string(c)]; ok {
		return f
	}
	return e.confidence[string(models.ConfidenceMedium)]
}

func (e *Engine) calibrate(prob float64, category models.Category) (float64, bool) {
	scale, ok := e.calibrators[string(category)]
	if !ok || scale == 1 {
		return prob, false
	}
	return clamp(prob*scale, 0, 100), true
}
