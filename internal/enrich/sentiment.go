package enrich

import (
	"context"
	"net/http"
	"strings"
)

var positiveKeywords = []string{
	"agreement", "deal", "growth", "recovery", "peace", "breakthrough",
	"progress", "rally", "surge", "record high", "optimism", "resolved",
}

var negativeKeywords = []string{
	"war", "conflict", "crisis", "crash", "collapse", "sanction",
	"recession", "attack", "escalation", "default", "outbreak", "strike",
}

type worldSentiment struct {
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Positive    int     `json:"positive"`
	Negative    int     `json:"negative"`
	Neutral     int     `json:"neutral"`
}

// computeWorldSentiment samples recent global headlines and buckets them by
// keyword polarity. Temperature maps the positive share of polarized
// headlines onto [0,100]; 50 is neutral.
func computeWorldSentiment(ctx context.Context, client *http.Client) (*worldSentiment, error) {
	articles, err := fetchGDELTArticles(ctx, client, "global economy OR geopolitics", 40)
	if err != nil {
		return nil, err
	}

	s := &worldSentiment{Temperature: 50}
	for _, a := range articles {
		text := strings.ToLower(a.Title)
		pos := countMatches(text, positiveKeywords)
		neg := countMatches(text, negativeKeywords)
		switch {
		case pos > neg:
			s.Positive++
		case neg > pos:
			s.Negative++
		default:
			s.Neutral++
		}
	}

	polarized := s.Positive + s.Negative
	if polarized > 0 {
		s.Temperature = 100 * float64(s.Positive) / float64(polarized)
	}
	switch {
	case s.Temperature >= 65:
		s.Description = "global sentiment leans clearly positive"
	case s.Temperature >= 55:
		s.Description = "global sentiment leans mildly positive"
	case s.Temperature > 45:
		s.Description = "global sentiment is mixed"
	case s.Temperature > 35:
		s.Description = "global sentiment leans mildly negative"
	default:
		s.Description = "global sentiment leans clearly negative"
	}
	return s, nil
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
