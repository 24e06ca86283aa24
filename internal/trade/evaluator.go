// Package trade turns a fused forecast into an advisory BUY/HOLD/SELL signal.
// The signal is informational output, never an order.
package trade

import (
	"fmt"

	"go.uber.org/zap"

	"polyforecast/internal/config"
	"polyforecast/internal/models"
)

type Evaluator struct {
	logger *zap.Logger

	buyThreshold  float64
	sellThreshold float64
	riskThreshold float64
	riskCeiling   float64
}

func NewEvaluator(cfg config.TradeConfig, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		logger:        logger,
		buyThreshold:  cfg.EVBuyThreshold,
		sellThreshold: cfg.EVSellThreshold,
		riskThreshold: cfg.RiskThreshold,
		riskCeiling:   cfg.RiskCeiling,
	}
}

// Evaluate computes the signal for one fused outcome against its market
// price. It returns nil when the comparison is impossible: mock events, no
// fused model probability, or no market price. Edge is measured model-only
// versus market; the blended probability already contains the market and
// would dilute it.
func (e *Evaluator) Evaluate(ev *models.Event, outcome models.FusedOutcome, marketProb *float64) *models.TradeSignal {
	if ev.IsMock || outcome.ModelOnlyProb == nil || marketProb == nil {
		return nil
	}

	edge := *outcome.ModelOnlyProb - *marketProb

	// Markets at or past resolution report no remaining days; treat them as
	// a one-day horizon rather than withholding the signal.
	days := 1.0
	if ev.DaysToResolution != nil && *ev.DaysToResolution > 1 {
		days = *ev.DaysToResolution
	}
	annualized := edge * 365 / days

	horizon := days
	if horizon > 365 {
		horizon = 365
	}
	risk := clamp(outcome.Uncertainty/10+horizon/730, 0, 1)

	signal := &models.TradeSignal{
		EV:           edge,
		AnnualizedEV: annualized,
		RiskFactor:   risk,
	}
	switch {
	case edge > e.buyThreshold && risk < e.riskThreshold:
		signal.Signal = models.SignalBuy
		signal.Reason = fmt.Sprintf("model edge %+.1fpp with acceptable risk %.2f", edge, risk)
	case edge < -e.sellThreshold || risk >= e.riskCeiling:
		signal.Signal = models.SignalSell
		signal.Reason = fmt.Sprintf("model edge %+.1fpp or excessive risk %.2f", edge, risk)
	default:
		signal.Signal = models.SignalHold
		signal.Reason = fmt.Sprintf("edge %+.1fpp inside thresholds at risk %.2f", edge, risk)
	}

	e.logger.Debug("trade signal evaluated",
		zap.String("component", "trade"),
		zap.String("outcome", outcome.OutcomeName),
		zap.String("signal", signal.Signal),
		zap.Float64("ev", edge),
		zap.Float64("annualized_ev", annualized),
		zap.Float64("risk", risk))
	return signal
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
