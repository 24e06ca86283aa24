package orchestrator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"polyforecast/internal/models"
)

const maxReasoningChars = 200

// parsedOutput is the structured form pulled out of a raw model completion.
type parsedOutput struct {
	Probability float64
	Confidence  models.Confidence
	Reasoning   string
}

// parseModelOutput extracts the forecast JSON from a raw completion. Models
// wrap the object in prose or markdown fences more often than not, so the
// extractor scans for the first balanced brace object instead of trusting the
// whole payload to be JSON.
func parseModelOutput(raw string) (parsedOutput, error) {
	blob, ok := firstJSONObject(raw)
	if !ok {
		return parsedOutput{}, fmt.Errorf("no JSON object in model output")
	}

	var fields struct {
		Probability json.RawMessage `json:"probability"`
		Confidence  string          `json:"confidence"`
		Reasoning   string          `json:"reasoning"`
	}
	if err := json.Unmarshal(blob, &fields); err != nil {
		return parsedOutput{}, fmt.Errorf("malformed forecast object: %w", err)
	}

	prob, err := coerceNumber(fields.Probability)
	if err != nil {
		return parsedOutput{}, fmt.Errorf("probability: %w", err)
	}
	if math.IsNaN(prob) || math.IsInf(prob, 0) || prob < 0 || prob > 100 {
		return parsedOutput{}, fmt.Errorf("probability out of range: %v", prob)
	}

	return parsedOutput{
		Probability: prob,
		Confidence:  normalizeConfidence(fields.Confidence),
		Reasoning:   truncateReasoning(fields.Reasoning),
	}, nil
}

// firstJSONObject returns the first balanced top-level {...} span. Braces
// inside JSON strings are skipped.
func firstJSONObject(s string) (json.RawMessage, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				blob := []byte(s[start : i+1])
				if json.Valid(blob) {
					return blob, true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

// coerceNumber accepts numbers and numeric strings ("72", "72.5", "72%").
func coerceNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number or numeric string: %s", raw)
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable numeric string %q", s)
	}
	return f, nil
}

func normalizeConfidence(s string) models.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return models.ConfidenceLow
	case "high":
		return models.ConfidenceHigh
	default:
		return models.ConfidenceMedium
	}
}

func truncateReasoning(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxReasoningChars {
		return s
	}
	cut := s[:maxReasoningChars]
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
