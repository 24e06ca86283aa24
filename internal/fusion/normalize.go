package fusion

import (
	"go.uber.org/zap"

	"polyforecast/internal/models"
)

// NormalizeAll rescales the model-only probabilities of a mutually exclusive
// outcome set to sum to 100. Blended probabilities follow by the same factor
// so the blend stays consistent with its inputs. All other family types pass
// through untouched: their outcomes do not share one resolution, so forcing a
// common total would fabricate structure.
func (e *Engine) NormalizeAll(ev *models.Event, outcomes []models.FusedOutcome) models.NormalizationInfo {
	info := models.NormalizationInfo{FamilyType: ev.FamilyType}

	switch ev.FamilyType {
	case models.FamilyMutuallyExclusive:
	case models.FamilyConditional, models.FamilyHybrid:
		info.Reason = "conditional event detected, normalization skipped"
		e.logger.Info(info.Reason,
			zap.String("component", "fusion"),
			zap.String("family_type", string(ev.FamilyType)),
			zap.String("family_rule", ev.FamilySource))
		return info
	default:
		info.Reason = "single-outcome event, normalization not applicable"
		return info
	}

	var values []float64
	for i := range outcomes {
		if outcomes[i].ModelOnlyProb == nil {
			info.SkippedOutcomes = append(info.SkippedOutcomes, i)
			continue
		}
		values = append(values, *outcomes[i].ModelOnlyProb)
	}
	info.TotalBefore = neumaierSum(values)

	if len(values) == 0 {
		info.Reason = "no fused probabilities to normalize"
		return info
	}
	if info.TotalBefore <= 0 {
		info.Reason = "probability total is zero, normalization skipped"
		e.logger.Warn(info.Reason,
			zap.String("component", "fusion"),
			zap.String("slug", ev.MarketSlug))
		return info
	}

	scale := 100 / info.TotalBefore
	after := make([]float64, 0, len(values))
	for i := range outcomes {
		if outcomes[i].ModelOnlyProb == nil {
			continue
		}
		scaled := clamp(*outcomes[i].ModelOnlyProb*scale, 0, 100)
		outcomes[i].ModelOnlyProb = &scaled
		if outcomes[i].BlendedProb != nil {
			blended := clamp(*outcomes[i].BlendedProb*scale, 0, 100)
			outcomes[i].BlendedProb = &blended
		}
		after = append(after, scaled)
	}
	total := neumaierSum(after)
	info.TotalAfter = &total
	info.Normalized = true
	info.Reason = "mutually exclusive outcomes rescaled to a 100% total"
	e.logger.Debug("outcomes normalized",
		zap.String("component", "fusion"),
		zap.String("slug", ev.MarketSlug),
		zap.Float64("total_before", info.TotalBefore),
		zap.Float64("total_after", total),
		zap.Int("skipped", len(info.SkippedOutcomes)))
	return info
}
