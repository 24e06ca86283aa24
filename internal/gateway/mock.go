package gateway

import (
	"strings"
	"time"

	"polyforecast/internal/models"
)

// MockEvent fabricates a minimal event from the raw reference so the rest of
// the pipeline can exercise a question no source could resolve. The result is
// flagged IsMock; persistence and trade evaluation skip it.
func MockEvent(ref models.EventReference, now time.Time) *models.Event {
	question := strings.TrimSpace(ref.Value)
	if ref.Kind != models.ReferenceFreeText {
		question = "Will \"" + question + "\" resolve YES?"
	}
	resolution := now.Add(30 * 24 * time.Hour)
	days := 30.0
	return &models.Event{
		Question:         question,
		Rules:            "Synthetic event. No market rules are available.",
		ResolutionDate:   &resolution,
		DaysToResolution: &days,
		Outcomes: []models.Outcome{
			{Name: "Yes", Active: true},
		},
		IsMock: true,
		Source: "mock",
	}
}
