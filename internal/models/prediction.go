package models

import (
	"fmt"
	"time"
)

// Confidence is the self-reported confidence label of a model response.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ModelResponse is one model's answer for one outcome. A response is valid iff
// Err is nil and Probability is a finite value in [0,100]; everything else in
// the struct is best-effort diagnostics.
type ModelResponse struct {
	ModelID     string
	Probability float64
	Confidence  Confidence
	Reasoning   string
	Latency     time.Duration
	Err         error
}

// Valid reports whether the response may participate in fusion.
func (r ModelResponse) Valid() bool {
	if r.Err != nil {
		return false
	}
	return r.Probability >= 0 && r.Probability <= 100 && !isNaNOrInf(r.Probability)
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}

// FusedOutcome is the fusion result for a single outcome. ModelOnlyProb and
// BlendedProb are nil when no valid model response existed (and, for
// BlendedProb, no market price either).
type FusedOutcome struct {
	OutcomeName        string   `json:"outcome_name"`
	ModelOnlyProb      *float64 `json:"model_only_prob,omitempty"`
	BlendedProb        *float64 `json:"blended_prob,omitempty"`
	Uncertainty        float64  `json:"uncertainty"`
	ModelCount         int      `json:"model_count"`
	Disagreement       float64  `json:"disagreement"`
	Summary            string   `json:"summary,omitempty"`
	WeightSource       string   `json:"weight_source,omitempty"`
	CalibrationApplied bool     `json:"calibration_applied"`
}

// NormalizationInfo records what cross-outcome normalization did (or why it
// was skipped).
type NormalizationInfo struct {
	FamilyType      FamilyType `json:"family_type"`
	TotalBefore     float64    `json:"total_before"`
	TotalAfter      *float64   `json:"total_after,omitempty"`
	Normalized      bool       `json:"normalized"`
	SkippedOutcomes []int      `json:"skipped_outcomes,omitempty"`
	Reason          string     `json:"reason,omitempty"`
}

// Signal classification.
const (
	SignalBuy  = "BUY"
	SignalHold = "HOLD"
	SignalSell = "SELL"
)

type TradeSignal struct {
	Signal       string  `json:"signal"`
	EV           float64 `json:"ev"`
	AnnualizedEV float64 `json:"annualized_ev"`
	RiskFactor   float64 `json:"risk_factor"`
	Reason       string  `json:"reason,omitempty"`
}

// Prediction is the result envelope of one pipeline invocation. It always
// carries enough diagnostics that a formatter can explain absences; partial
// failure shows up as nils, never as an error.
type Prediction struct {
	Event         *Event            `json:"event"`
	Outcomes      []FusedOutcome    `json:"outcomes"`
	Normalization NormalizationInfo `json:"normalization"`
	TradeSignal   *TradeSignal      `json:"trade_signal,omitempty"`
	RequesterID   string            `json:"requester_id,omitempty"`
	TimedOut      bool              `json:"timed_out"`
	Timestamp     time.Time         `json:"timestamp"`
}

// InvariantViolation indicates a bug: a probability outside [0,100] or a
// non-positive weight reached a place that must never see one.
type InvariantViolation struct {
	What  string
	Value float64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s = %v", e.What, e.Value)
}
