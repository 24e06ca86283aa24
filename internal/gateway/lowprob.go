package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polyforecast/internal/models"
)

var hundred = decimal.NewFromInt(100)

// LowProbabilityError reports an event screened out before analysis because
// every usable probability sits below the configured floor.
type LowProbabilityError struct {
	Max       float64
	Threshold float64
}

func (e *LowProbabilityError) Error() string {
	return fmt.Sprintf("gateway: event below probability floor (max %.2f%% < %.2f%%)", e.Max, e.Threshold)
}

// CheckLowProbability screens resolved events against the probability floor.
// Candidates come from the event-level probability, then per-outcome market
// probabilities, then a CLOB book midpoint as a last resort; a candidate is
// usable when strictly positive and at most 100. An event trips the filter
// only when candidates exist and the best of them is under the threshold.
// Mock events are never screened.
func (g *Gateway) CheckLowProbability(ctx context.Context, ev *models.Event, threshold float64) error {
	if ev.IsMock || threshold <= 0 {
		return nil
	}
	candidates := g.probabilityCandidates(ctx, ev)
	if len(candidates) == 0 {
		g.Logger.Debug("no usable probability candidates, skipping floor check",
			zap.String("component", "gateway"),
			zap.String("slug", ev.MarketSlug))
		return nil
	}
	max := candidates[0]
	for _, c := range candidates[1:] {
		if c > max {
			max = c
		}
	}
	if max < threshold {
		return &LowProbabilityError{Max: max, Threshold: threshold}
	}
	return nil
}

func (g *Gateway) probabilityCandidates(ctx context.Context, ev *models.Event) []float64 {
	var candidates []float64
	add := func(p *float64) {
		if p != nil && *p > 0 && *p <= 100 {
			candidates = append(candidates, *p)
		}
	}
	add(ev.MarketProbability)
	for i := range ev.Outcomes {
		add(ev.Outcomes[i].MarketProbability)
	}
	if len(candidates) > 0 || g.Clob == nil {
		return candidates
	}

	// Last resort: quote each outcome that carries a token. The single
	// price endpoint is cheaper than the full book, so try it first; a
	// book midpoint covers tokens without a quoted price. CLOB failures
	// are ignored; the filter simply stays out of the way.
	for i := range ev.Outcomes {
		tokenID := ev.Outcomes[i].TokenID
		if tokenID == "" {
			continue
		}
		if price, err := g.Clob.GetPrice(ctx, tokenID, ""); err == nil && price.IsPositive() {
			pct, _ := price.Mul(hundred).Float64()
			add(&pct)
			continue
		}
		book, err := g.Clob.GetBook(ctx, tokenID)
		if err != nil {
			g.Logger.Debug("order book lookup failed",
				zap.String("component", "gateway"),
				zap.String("token_id", tokenID),
				zap.Error(err))
			continue
		}
		mid, ok := book.Mid()
		if !ok {
			continue
		}
		pct, _ := mid.Mul(hundred).Float64()
		add(&pct)
	}
	return candidates
}
