package orchestrator

import (
	"strings"
	"testing"

	"polyforecast/internal/models"
)

func TestParseModelOutputPlainJSON(t *testing.T) {
	out, err := parseModelOutput(`{"probability": 72.5, "confidence": "high", "reasoning": "strong polling lead"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if out.Probability != 72.5 {
		t.Fatalf("probability = %v, want 72.5", out.Probability)
	}
	if out.Confidence != models.ConfidenceHigh {
		t.Fatalf("confidence = %v, want high", out.Confidence)
	}
	if out.Reasoning != "strong polling lead" {
		t.Fatalf("reasoning = %q", out.Reasoning)
	}
}

func TestParseModelOutputWrappedInProse(t *testing.T) {
	raw := "Sure! Here's my forecast:\n```json\n{\"probability\": 40, \"confidence\": \"medium\", \"reasoning\": \"mixed signals\"}\n```\nLet me know if you need more."
	out, err := parseModelOutput(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if out.Probability != 40 {
		t.Fatalf("probability = %v, want 40", out.Probability)
	}
}

func TestParseModelOutputTakesFirstObject(t *testing.T) {
	raw := `{"probability": 30, "confidence": "low", "reasoning": "first"} {"probability": 90}`
	out, err := parseModelOutput(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if out.Probability != 30 {
		t.Fatalf("probability = %v, want first object's 30", out.Probability)
	}
}

func TestParseModelOutputBracesInsideStrings(t *testing.T) {
	raw := `{"probability": 55, "confidence": "medium", "reasoning": "the {unlikely} case"}`
	out, err := parseModelOutput(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !strings.Contains(out.Reasoning, "{unlikely}") {
		t.Fatalf("reasoning = %q", out.Reasoning)
	}
}

func TestParseModelOutputStringCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`{"probability": "72"}`, 72},
		{`{"probability": "72.5"}`, 72.5},
		{`{"probability": "72%"}`, 72},
	}
	for _, tt := range tests {
		out, err := parseModelOutput(tt.raw)
		if err != nil {
			t.Fatalf("parse(%q) failed: %v", tt.raw, err)
		}
		if out.Probability != tt.want {
			t.Fatalf("parse(%q) = %v, want %v", tt.raw, out.Probability, tt.want)
		}
	}
}

func TestParseModelOutputConfidenceDefaults(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Confidence
	}{
		{`{"probability": 50, "confidence": "HIGH"}`, models.ConfidenceHigh},
		{`{"probability": 50, "confidence": "Low"}`, models.ConfidenceLow},
		{`{"probability": 50, "confidence": "certain"}`, models.ConfidenceMedium},
		{`{"probability": 50}`, models.ConfidenceMedium},
	}
	for _, tt := range tests {
		out, err := parseModelOutput(tt.raw)
		if err != nil {
			t.Fatalf("parse(%q) failed: %v", tt.raw, err)
		}
		if out.Confidence != tt.want {
			t.Fatalf("parse(%q) confidence = %v, want %v", tt.raw, out.Confidence, tt.want)
		}
	}
}

func TestParseModelOutputReasoningTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	out, err := parseModelOutput(`{"probability": 50, "reasoning": "` + long + `"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(out.Reasoning) != maxReasoningChars {
		t.Fatalf("reasoning length = %d, want %d", len(out.Reasoning), maxReasoningChars)
	}
}

func TestParseModelOutputRejects(t *testing.T) {
	tests := []string{
		`no json here at all`,
		`{"confidence": "high"}`,
		`{"probability": 120}`,
		`{"probability": -5}`,
		`{"probability": "many"}`,
		`{"probability": 50`,
	}
	for _, raw := range tests {
		if _, err := parseModelOutput(raw); err == nil {
			t.Fatalf("parse(%q) should fail", raw)
		}
	}
}
