package gateway

import (
	"math"
	"strings"
	"time"

	"polyforecast/internal/client/gamma"
	"polyforecast/internal/models"
)

// marketToEvent builds a single-outcome event from one Gamma market. Yes/No
// markets are represented with the Yes side only; the complement is implicit.
func marketToEvent(m gamma.Market, source string, now time.Time) *models.Event {
	ev := &models.Event{
		Question:   strings.TrimSpace(m.Question),
		Rules:      strings.TrimSpace(m.Description),
		MarketSlug: m.Slug,
		MarketID:   m.ID,
		Source:     source,
	}
	setResolution(ev, m.EndDate, now)

	prob := yesProbability(m)
	ev.MarketProbability = prob

	outcome := models.Outcome{
		Name:              "Yes",
		MarketProbability: prob,
		Active:            m.Active && !m.Closed,
	}
	if ids := m.ParsedTokenIDs(); len(ids) > 0 {
		outcome.TokenID = ids[0]
	}
	ev.Outcomes = []models.Outcome{outcome}
	return ev
}

// groupToEvent expands a Gamma event group into a multi-outcome event. Child
// markets are kept when active, unresolved, unique by name, and priced
// strictly inside (0,1); source order is preserved.
func groupToEvent(g gamma.Event, source string, now time.Time) *models.Event {
	ev := &models.Event{
		Question:   strings.TrimSpace(g.Title),
		Rules:      strings.TrimSpace(g.Description),
		MarketSlug: g.Slug,
		MarketID:   g.ID,
		Source:     source,
	}
	setResolution(ev, g.EndDate, now)

	seen := map[string]bool{}
	for _, m := range g.Markets {
		if !m.Active || m.Closed {
			continue
		}
		name := outcomeName(m)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		prob := yesProbability(m)
		if prob == nil {
			continue
		}
		seen[key] = true
		outcome := models.Outcome{
			Name:              name,
			MarketProbability: prob,
			Active:            true,
		}
		if ids := m.ParsedTokenIDs(); len(ids) > 0 {
			outcome.TokenID = ids[0]
		}
		ev.Outcomes = append(ev.Outcomes, outcome)
	}

	if len(ev.Outcomes) == 1 {
		ev.MarketProbability = ev.Outcomes[0].MarketProbability
	}
	return ev
}

func outcomeName(m gamma.Market) string {
	if name := strings.TrimSpace(m.GroupItemTitle); name != "" {
		return name
	}
	return strings.TrimSpace(m.Question)
}

// yesProbability extracts the Yes-side price as a percentage. Degenerate 0/1
// closures and malformed arrays yield nil.
func yesProbability(m gamma.Market) *float64 {
	prices := m.ParsedPrices()
	if len(prices) == 0 {
		return nil
	}
	p := prices[0]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	if p <= 0 || p >= 1 {
		return nil
	}
	pct := p * 100
	return &pct
}

func setResolution(ev *models.Event, endDate string, now time.Time) {
	if endDate == "" {
		return
	}
	ts, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return
	}
	ev.ResolutionDate = &ts
	days := ts.Sub(now).Hours() / 24
	if days < 0 {
		days = 0
	}
	ev.DaysToResolution = &days
}
