package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const gdeltDocURL = "https://api.gdeltproject.org/api/v2/doc/doc"

type gdeltArticle struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	SeenDate  string `json:"seendate"`
	Language  string `json:"language"`
	SourceCtr string `json:"sourcecountry"`
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

// fetchGDELTArticles pulls recent articles matching the query from the free
// GDELT document API.
func fetchGDELTArticles(ctx context.Context, client *http.Client, query string, max int) ([]gdeltArticle, error) {
	if max <= 0 {
		max = 20
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("format", "json")
	params.Set("maxrecords", fmt.Sprintf("%d", max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gdeltDocURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt status %d: %s", resp.StatusCode, truncateBody(body))
	}
	var parsed gdeltResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gdelt response: %w", err)
	}
	return parsed.Articles, nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// extractKeywords pulls the few most informative words from an event question
// for use as a news query.
var stopwords = map[string]bool{
	"will": true, "the": true, "and": true, "for": true, "that": true,
	"with": true, "this": true, "what": true, "when": true, "who": true,
	"which": true, "before": true, "after": true, "into": true, "from": true,
	"does": true, "have": true, "been": true, "are": true, "was": true,
	"win": true, "2025": true, "2026": true,
}

func extractKeywords(text string, max int) []string {
	if max <= 0 {
		max = 5
	}
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, text)
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(cleaned)) {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == max {
			break
		}
	}
	return keywords
}
