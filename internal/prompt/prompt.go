// Package prompt renders the per-model forecasting prompts. Every model in
// the ensemble sees the same event description; only the leading analytical
// dimension differs.
package prompt

import (
	"fmt"
	"strings"

	"polyforecast/internal/classifier"
	"polyforecast/internal/models"
)

const (
	maxRulesChars = 1500
	maxNewsChars  = 500
)

// Composer builds prompts for one event. Construct a fresh Composer per
// pipeline invocation.
type Composer struct {
	event      *models.Event
	dimensions map[string]classifier.Dimension
}

func NewComposer(ev *models.Event, dimensions map[string]classifier.Dimension) *Composer {
	return &Composer{event: ev, dimensions: dimensions}
}

// Build renders the prompt for one model and one outcome. outcomeIdx selects
// the outcome under analysis; for single-outcome events pass 0.
func (c *Composer) Build(modelID string, outcomeIdx int) string {
	ev := c.event
	dim := c.dimensions[modelID]

	var b strings.Builder
	b.WriteString("You are an expert forecaster contributing to a multi-model ensemble prediction system.\n")
	b.WriteString("Each model leads with a different analytical dimension; focus on yours and let the ensemble cover the rest.\n\n")

	fmt.Fprintf(&b, "**Your dimension:** %s\n%s\n\n", dim, dim.Describe())

	b.WriteString("**Event:**\n")
	fmt.Fprintf(&b, "- Question: %s\n", ev.Question)
	if outcomeIdx >= 0 && outcomeIdx < len(ev.Outcomes) && ev.IsMultiOption() {
		fmt.Fprintf(&b, "- Outcome under analysis: %s\n", ev.Outcomes[outcomeIdx].Name)
		b.WriteString("- Estimate the probability that THIS outcome resolves YES.\n")
	}
	if rules := truncate(ev.Rules, maxRulesChars); rules != "" {
		fmt.Fprintf(&b, "- Resolution rules: %s\n", rules)
	}
	if p := c.marketProbability(outcomeIdx); p != nil {
		fmt.Fprintf(&b, "- Current market probability: %.1f%%\n", *p)
	}
	if ev.DaysToResolution != nil {
		fmt.Fprintf(&b, "- Time until resolution: %.0f days\n", *ev.DaysToResolution)
	}

	if section := enrichmentSection(ev.Enrichment); section != "" {
		b.WriteString("\n**Global context:**\n")
		b.WriteString(section)
	}

	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"probability": <number 0-100>, "confidence": "<low|medium|high>", "reasoning": "<brief explanation focused on your dimension>"}`)
	b.WriteString("\n")
	return b.String()
}

func (c *Composer) marketProbability(outcomeIdx int) *float64 {
	ev := c.event
	if outcomeIdx >= 0 && outcomeIdx < len(ev.Outcomes) {
		if p := ev.Outcomes[outcomeIdx].MarketProbability; p != nil {
			return p
		}
	}
	return ev.MarketProbability
}

func enrichmentSection(e *models.EnrichmentContext) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.WorldTemperature != nil {
		fmt.Fprintf(&b, "- Global sentiment temperature: %.1f (0 = very negative, 100 = very positive)\n", *e.WorldTemperature)
	}
	if desc := strings.TrimSpace(e.WorldDescription); desc != "" {
		fmt.Fprintf(&b, "- Global sentiment: %s\n", desc)
	}
	if news := truncate(e.NewsSummary, maxNewsChars); news != "" {
		fmt.Fprintf(&b, "- Recent news summary: %s\n", news)
	}
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// Avoid splitting a multi-byte rune at the boundary.
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
