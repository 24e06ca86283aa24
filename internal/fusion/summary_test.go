package fusion

import (
	"strings"
	"testing"

	"polyforecast/internal/models"
)

func TestSummarizeDropsNearDuplicates(t *testing.T) {
	responses := []models.ModelResponse{
		{ModelID: "a", Reasoning: "Polls show a consistent lead for the incumbent across swing states."},
		{ModelID: "b", Reasoning: "Polls show a consistent lead for the incumbent across swing states!"},
		{ModelID: "c", Reasoning: "Fundraising totals favour the challenger this cycle."},
	}
	summary := summarizeReasonings(responses)
	if strings.Count(summary, "consistent lead") != 1 {
		t.Fatalf("duplicate snippet kept: %q", summary)
	}
	if !strings.Contains(summary, "Fundraising totals") {
		t.Fatalf("distinct snippet dropped: %q", summary)
	}
}

func TestSummarizeLeadsWithHighestConfidence(t *testing.T) {
	responses := []models.ModelResponse{
		{ModelID: "a", Confidence: models.ConfidenceLow, Reasoning: "Weak signal from recent polling."},
		{ModelID: "b", Confidence: models.ConfidenceHigh, Reasoning: "Strong historical base rate supports YES."},
		{ModelID: "c", Confidence: models.ConfidenceMedium, Reasoning: "Market momentum is mixed."},
	}
	summary := summarizeReasonings(responses)
	if !strings.HasPrefix(summary, "Strong historical base rate") {
		t.Fatalf("highest-confidence snippet must lead: %q", summary)
	}
}

func TestSummarizeSkipsEmpty(t *testing.T) {
	responses := []models.ModelResponse{
		{ModelID: "a", Reasoning: "  "},
		{ModelID: "b", Reasoning: "Only real content survives."},
	}
	if got := summarizeReasonings(responses); got != "Only real content survives." {
		t.Fatalf("summary = %q", got)
	}
}

func TestDiceSimilarity(t *testing.T) {
	if got := diceSimilarity("abcd", "abcd"); got != 1 {
		t.Fatalf("identical strings = %v, want 1", got)
	}
	if got := diceSimilarity("abcd", "wxyz"); got != 0 {
		t.Fatalf("disjoint strings = %v, want 0", got)
	}
	near := diceSimilarity(
		"the market expects a rate cut in september",
		"the market expects a rate cut in september.",
	)
	if near < similarityCutoff {
		t.Fatalf("near-duplicates scored %v, want >= %v", near, similarityCutoff)
	}
}
