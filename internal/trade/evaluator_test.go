package trade

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"polyforecast/internal/config"
	"polyforecast/internal/models"
)

func testEvaluator() *Evaluator {
	return NewEvaluator(config.TradeConfig{
		EVBuyThreshold:  2.0,
		EVSellThreshold: 2.0,
		RiskThreshold:   0.6,
		RiskCeiling:     0.9,
	}, zap.NewNop())
}

func floatPtr(f float64) *float64 { return &f }

func eventWithDays(days float64) *models.Event {
	return &models.Event{
		Question:         "Will it happen?",
		DaysToResolution: &days,
	}
}

func TestEvaluateBuy(t *testing.T) {
	ev := eventWithDays(30)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(60), Uncertainty: 2}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil {
		t.Fatalf("expected a signal")
	}
	if signal.Signal != models.SignalBuy {
		t.Fatalf("signal = %s, want BUY", signal.Signal)
	}
	if math.Abs(signal.EV-10) > 1e-12 {
		t.Fatalf("ev = %v, want 10", signal.EV)
	}
}

func TestEvaluateSellOnNegativeEdge(t *testing.T) {
	ev := eventWithDays(10)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(20), Uncertainty: 1}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(40))
	if signal == nil || signal.Signal != models.SignalSell {
		t.Fatalf("signal = %v, want SELL", signal)
	}
}

func TestEvaluateSellOnExcessiveRisk(t *testing.T) {
	ev := eventWithDays(365)
	// uncertainty 9 -> 0.9 risk from spread alone.
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(55), Uncertainty: 9}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil || signal.Signal != models.SignalSell {
		t.Fatalf("signal = %v, want SELL on risk ceiling", signal)
	}
	if signal.RiskFactor < 0.9 {
		t.Fatalf("risk = %v, want >= 0.9", signal.RiskFactor)
	}
}

func TestEvaluateHoldInsideThresholds(t *testing.T) {
	ev := eventWithDays(30)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(51), Uncertainty: 2}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil || signal.Signal != models.SignalHold {
		t.Fatalf("signal = %v, want HOLD", signal)
	}
}

func TestEvaluateHoldWhenEdgeGoodButRisky(t *testing.T) {
	ev := eventWithDays(300)
	// risk = 5/10 + 300/730 = 0.91... -> SELL via ceiling, so use smaller spread.
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(60), Uncertainty: 3}
	// risk = 0.3 + 300/730 = 0.711 -> not < 0.6, not >= 0.9.
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil || signal.Signal != models.SignalHold {
		t.Fatalf("signal = %v, want HOLD despite positive edge", signal)
	}
}

func TestEvaluateAnnualizedEV(t *testing.T) {
	ev := eventWithDays(73)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(58), Uncertainty: 2}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil {
		t.Fatalf("expected a signal")
	}
	// 8pp * 365/73 = 40
	if math.Abs(signal.AnnualizedEV-40) > 1e-9 {
		t.Fatalf("annualized ev = %v, want 40", signal.AnnualizedEV)
	}
}

func TestEvaluateShortHorizonUsesOneDayFloor(t *testing.T) {
	ev := eventWithDays(0.2)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(55), Uncertainty: 1}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil {
		t.Fatalf("expected a signal")
	}
	if math.Abs(signal.AnnualizedEV-5*365) > 1e-9 {
		t.Fatalf("annualized ev = %v, want %v", signal.AnnualizedEV, 5.0*365)
	}
}

func TestEvaluateRiskCapsHorizonAtOneYear(t *testing.T) {
	ev := eventWithDays(2000)
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(55), Uncertainty: 0}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil {
		t.Fatalf("expected a signal")
	}
	// 365/730 = 0.5
	if math.Abs(signal.RiskFactor-0.5) > 1e-12 {
		t.Fatalf("risk = %v, want 0.5", signal.RiskFactor)
	}
}

func TestEvaluateNilCases(t *testing.T) {
	eval := testEvaluator()
	ev := eventWithDays(30)

	if s := eval.Evaluate(ev, models.FusedOutcome{}, floatPtr(50)); s != nil {
		t.Fatalf("no model probability must yield nil, got %v", s)
	}
	if s := eval.Evaluate(ev, models.FusedOutcome{ModelOnlyProb: floatPtr(60)}, nil); s != nil {
		t.Fatalf("no market probability must yield nil, got %v", s)
	}

	mock := eventWithDays(30)
	mock.IsMock = true
	if s := eval.Evaluate(mock, models.FusedOutcome{ModelOnlyProb: floatPtr(60)}, floatPtr(50)); s != nil {
		t.Fatalf("mock event must yield nil, got %v", s)
	}
}

func TestEvaluateMissingHorizonUsesOneDay(t *testing.T) {
	ev := &models.Event{Question: "Resolving today?"}
	outcome := models.FusedOutcome{ModelOnlyProb: floatPtr(55), Uncertainty: 1}
	signal := testEvaluator().Evaluate(ev, outcome, floatPtr(50))
	if signal == nil {
		t.Fatalf("missing horizon must not withhold the signal")
	}
	if math.Abs(signal.AnnualizedEV-5*365) > 1e-9 {
		t.Fatalf("annualized = %v, want one-day horizon", signal.AnnualizedEV)
	}
}
