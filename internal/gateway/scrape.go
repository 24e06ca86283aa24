package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"polyforecast/internal/client/gamma"
	"polyforecast/internal/models"
)

const (
	nextDataOpen  = `<script id="__NEXT_DATA__" type="application/json">`
	nextDataClose = `</script>`
	eventPageBase = "https://polymarket.com/event/"
)

// scrapeSource is the last fallback: fetch the public market page and pull the
// embedded __NEXT_DATA__ payload. Brittle against frontend changes, so every
// decode failure degrades to not-found rather than an error.
type scrapeSource struct {
	httpClient *http.Client
}

func (s *scrapeSource) Name() string { return "scrape" }

func (s *scrapeSource) Resolve(ctx context.Context, ref models.EventReference) (*models.Event, error) {
	if ref.Kind == models.ReferenceFreeText {
		return nil, ErrMarketNotFound
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, eventPageBase+ref.Value, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMarketNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &gamma.APIError{Status: resp.StatusCode, Body: string(body)}
	}
	// Pages run to a few MB; cap the read rather than trust Content-Length.
	page, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payload, ok := extractNextData(string(page))
	if !ok {
		return nil, ErrMarketNotFound
	}
	markets := collectScrapedMarkets(payload)
	if len(markets) == 0 {
		return nil, ErrMarketNotFound
	}

	now := time.Now().UTC()
	if len(markets) > 1 {
		group := gamma.Event{
			Title:   markets[0].Question,
			Slug:    ref.Value,
			EndDate: markets[0].EndDate,
			Markets: markets,
		}
		if ev := groupToEvent(group, s.Name(), now); len(ev.Outcomes) > 0 {
			return ev, nil
		}
	}
	for _, m := range markets {
		if ev := marketToEvent(m, s.Name(), now); len(ev.Outcomes) > 0 {
			ev.MarketSlug = ref.Value
			return ev, nil
		}
	}
	return nil, ErrMarketNotFound
}

// extractNextData returns the JSON blob embedded in the Next.js bootstrap
// script tag.
func extractNextData(page string) (json.RawMessage, bool) {
	start := strings.Index(page, nextDataOpen)
	if start < 0 {
		return nil, false
	}
	start += len(nextDataOpen)
	end := strings.Index(page[start:], nextDataClose)
	if end < 0 {
		return nil, false
	}
	blob := strings.TrimSpace(page[start : start+end])
	if blob == "" || !json.Valid([]byte(blob)) {
		return nil, false
	}
	return json.RawMessage(blob), true
}

// collectScrapedMarkets walks the bootstrap payload and gathers every object
// that looks like a Gamma market (has both question and outcomePrices). The
// page nests these under dehydrated query state whose exact shape shifts
// between frontend deploys, so a structural walk beats a fixed path.
func collectScrapedMarkets(payload json.RawMessage) []gamma.Market {
	var root interface{}
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil
	}
	var markets []gamma.Market
	seen := map[string]bool{}
	walkForMarkets(root, func(node map[string]interface{}) {
		raw, err := json.Marshal(node)
		if err != nil {
			return
		}
		var m gamma.Market
		if err := json.Unmarshal(raw, &m); err != nil {
			return
		}
		if m.Question == "" || m.OutcomePrices == "" {
			return
		}
		key := m.ID
		if key == "" {
			key = m.Question
		}
		if seen[key] {
			return
		}
		seen[key] = true
		markets = append(markets, m)
	})
	return markets
}

func walkForMarkets(node interface{}, visit func(map[string]interface{})) {
	switch v := node.(type) {
	case map[string]interface{}:
		if _, hasQ := v["question"]; hasQ {
			if _, hasP := v["outcomePrices"]; hasP {
				visit(v)
			}
		}
		for _, child := range v {
			walkForMarkets(child, visit)
		}
	case []interface{}:
		for _, child := range v {
			walkForMarkets(child, visit)
		}
	}
}
