package fusion

import (
	"sort"
	"strings"

	"polyforecast/internal/models"
)

// similarityCutoff is the bigram Dice coefficient above which two reasoning
// snippets are considered duplicates.
const similarityCutoff = 0.9

// summarizeReasonings joins the distinct reasoning snippets of the valid
// responses, highest confidence first. Models frequently converge on
// near-identical wording; snippets at or above the similarity cutoff against
// an already-kept one are dropped.
func summarizeReasonings(responses []models.ModelResponse) string {
	ordered := make([]models.ModelResponse, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return confidenceRank(ordered[i].Confidence) > confidenceRank(ordered[j].Confidence)
	})

	var kept []string
	for _, r := range ordered {
		snippet := strings.TrimSpace(r.Reasoning)
		if snippet == "" {
			continue
		}
		dup := false
		for _, existing := range kept {
			if diceSimilarity(existing, snippet) >= similarityCutoff {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, snippet)
		}
	}
	return strings.Join(kept, " | ")
}

func confidenceRank(c models.Confidence) int {
	switch c {
	case models.ConfidenceHigh:
		return 3
	case models.ConfidenceLow:
		return 1
	default:
		return 2
	}
}

// diceSimilarity is the Dice coefficient over character bigrams of the
// lowercased inputs.
func diceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ba := bigrams(strings.ToLower(a))
	bb := bigrams(strings.ToLower(b))
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	var overlap, totalA, totalB int
	for gram, n := range ba {
		totalA += n
		if m := bb[gram]; m > 0 {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	for _, n := range bb {
		totalB += n
	}
	return 2 * float64(overlap) / float64(totalA+totalB)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
