package gateway

import (
	"net/url"
	"regexp"
	"strings"

	"polyforecast/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)+$`)

// ParseReference classifies raw user input. URLs yield the trailing path
// segment as the slug; bare hyphenated lowercase tokens are treated as slugs;
// everything else is a free-text question.
func ParseReference(input string) (models.EventReference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return models.EventReference{}, ErrReferenceUnparseable
	}

	if strings.Contains(trimmed, "polymarket.com") {
		slug := slugFromURL(trimmed)
		if slug == "" {
			return models.EventReference{}, ErrReferenceUnparseable
		}
		return models.EventReference{Kind: models.ReferenceMarketURL, Value: slug}, nil
	}

	if slugPattern.MatchString(trimmed) {
		return models.EventReference{Kind: models.ReferenceSlug, Value: trimmed}, nil
	}

	return models.EventReference{Kind: models.ReferenceFreeText, Value: trimmed}, nil
}

func slugFromURL(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// Paths look like /event/<event-slug> or /event/<event-slug>/<market-slug>;
	// the last non-empty segment is the most specific slug.
	for i := len(parts) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(parts[i])
		if seg == "" || seg == "event" || seg == "market" {
			continue
		}
		return seg
	}
	return ""
}
