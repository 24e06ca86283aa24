// Package classifier assigns a category, an outcome family type and
// per-model analytical dimensions to resolved events. Classification is
// keyword-driven and fully deterministic: the same event text always yields
// the same labels.
package classifier

import (
	"strings"

	"go.uber.org/zap"

	"polyforecast/internal/models"
)

type Classifier struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify labels the event in place and records which family rule fired.
func (c *Classifier) Classify(ev *models.Event) {
	text := normalizeText(ev.Question + " " + ev.Rules)

	ev.Category = classifyCategory(text)

	family, ruleName := classifyFamily(ev, text)
	ev.FamilyType = family
	ev.FamilySource = ruleName

	c.logger.Debug("event classified",
		zap.String("component", "classifier"),
		zap.String("slug", ev.MarketSlug),
		zap.String("category", string(ev.Category)),
		zap.String("family_type", string(ev.FamilyType)),
		zap.String("family_rule", ev.FamilySource))
}

func normalizeText(s string) string {
	return " " + strings.ToLower(strings.Join(strings.Fields(s), " ")) + " "
}

// containsAny matches keywords as substrings of the normalized text. Keywords
// that need word boundaries are stored with surrounding spaces.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
