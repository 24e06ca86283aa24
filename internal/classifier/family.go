package classifier

import (
	"regexp"
	"strings"

	"polyforecast/internal/models"
)

// familyRule decides how an outcome set resolves. Rules are evaluated in
// order; the name of the deciding rule is surfaced on the event so the
// normalization step can say why it ran (or did not).
type familyRule struct {
	name  string
	apply func(ev *models.Event, text string) (models.FamilyType, bool)
}

var conditionalKeywords = []string{
	" if ", " given that ", " conditional ", " provided that ", " in the event that ",
	" and also ", " both ", " combined with ",
}

var exclusiveKeywords = []string{
	"who will win", "which team", "which candidate", "which country",
	"which party", "who will be", "winner of", "next president",
	"next prime minister", "first to",
}

// Outcome names shaped like deadlines ("by Oct 30", "before 12/31") or
// cumulative thresholds ("$150k or more") can all resolve YES at once.
var dateBucketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?`),
	regexp.MustCompile(`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}`),
	regexp.MustCompile(`\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*`),
	regexp.MustCompile(`\b(by|on|before)\b`),
}

var thresholdBucketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(or more|or higher|or above|at least)\b`),
	regexp.MustCompile(`\breach(es)?\b`),
	regexp.MustCompile(`\d[km]?\+`),
}

// bucketHits counts outcome names matching any of the patterns.
func bucketHits(ev *models.Event, patterns []*regexp.Regexp) (hits, total int) {
	for i := range ev.Outcomes {
		name := strings.ToLower(ev.Outcomes[i].Name)
		total++
		for _, p := range patterns {
			if p.MatchString(name) {
				hits++
				break
			}
		}
	}
	return hits, total
}

var familyRules = []familyRule{
	{
		name: "single_outcome",
		apply: func(ev *models.Event, _ string) (models.FamilyType, bool) {
			if !ev.IsMultiOption() {
				return models.FamilyBinary, true
			}
			return "", false
		},
	},
	{
		name: "conditional_phrasing",
		apply: func(_ *models.Event, text string) (models.FamilyType, bool) {
			if containsAny(text, conditionalKeywords) {
				if containsAny(text, exclusiveKeywords) {
					return models.FamilyHybrid, true
				}
				return models.FamilyConditional, true
			}
			return "", false
		},
	},
	{
		// Date series over the outcome names: "by Oct 30" / "by Nov 15"
		// style buckets are cumulative, not one resolution slot.
		name: "date_bucket",
		apply: func(ev *models.Event, _ string) (models.FamilyType, bool) {
			if hits, total := bucketHits(ev, dateBucketPatterns); hits >= 2 && hits*2 >= total {
				return models.FamilyConditional, true
			}
			return "", false
		},
	},
	{
		name: "threshold_bucket",
		apply: func(ev *models.Event, _ string) (models.FamilyType, bool) {
			if hits, total := bucketHits(ev, thresholdBucketPatterns); hits >= 2 && hits*2 >= total {
				return models.FamilyConditional, true
			}
			return "", false
		},
	},
	{
		name: "exclusive_winner_phrasing",
		apply: func(_ *models.Event, text string) (models.FamilyType, bool) {
			if containsAny(text, exclusiveKeywords) {
				return models.FamilyMutuallyExclusive, true
			}
			return "", false
		},
	},
	{
		// Group markets expanded from one Gamma event share a single
		// resolution, so exclusivity is the sound default.
		name: "grouped_default",
		apply: func(ev *models.Event, _ string) (models.FamilyType, bool) {
			return models.FamilyMutuallyExclusive, true
		},
	},
}

func classifyFamily(ev *models.Event, text string) (models.FamilyType, string) {
	for _, rule := range familyRules {
		if family, ok := rule.apply(ev, text); ok {
			return family, rule.name
		}
	}
	return models.FamilyBinary, "fallback"
}
