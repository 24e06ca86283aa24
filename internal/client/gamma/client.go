package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to the Polymarket Gamma REST API. No auth is required for the
// read surface used here.
type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gamma API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://gamma-api.polymarket.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Market mirrors the subset of the Gamma market payload the gateway consumes.
// Outcomes and OutcomePrices arrive as JSON-encoded array strings.
type Market struct {
	ID             string `json:"id"`
	Question       string `json:"question"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	Outcomes       string `json:"outcomes"`
	OutcomePrices  string `json:"outcomePrices"`
	EndDate        string `json:"endDate"`
	Active         bool   `json:"active"`
	Closed         bool   `json:"closed"`
	GroupItemTitle string `json:"groupItemTitle"`
	ConditionID    string `json:"conditionId"`
	ClobTokenIDs   string `json:"clobTokenIds"`
}

// Event is a Gamma event group with its child markets.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	EndDate     string   `json:"endDate"`
	Markets     []Market `json:"markets"`
}

// ParsedOutcomes decodes the JSON-encoded outcome name array.
func (m Market) ParsedOutcomes() []string {
	var names []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil {
		return nil
	}
	return names
}

// ParsedPrices decodes the JSON-encoded price array. Gamma encodes prices as
// strings inside the array; tolerate both strings and numbers.
func (m Market) ParsedPrices() []float64 {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return nil
	}
	prices := make([]float64, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil
			}
			prices = append(prices, f)
			continue
		}
		var f float64
		if err := json.Unmarshal(item, &f); err != nil {
			return nil
		}
		prices = append(prices, f)
	}
	return prices
}

// ParsedTokenIDs decodes the JSON-encoded CLOB token ID array.
func (m Market) ParsedTokenIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// MarketsBySlug fetches markets matching a slug exactly.
func (c *Client) MarketsBySlug(ctx context.Context, slug string) ([]Market, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	query := url.Values{}
	query.Set("slug", slug)
	body, err := c.doRequest(ctx, "/markets", query)
	if err != nil {
		return nil, err
	}
	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}
	return markets, nil
}

// EventsBySlug fetches event groups (with nested child markets) by slug.
func (c *Client) EventsBySlug(ctx context.Context, slug string) ([]Event, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	query := url.Values{}
	query.Set("slug", slug)
	body, err := c.doRequest(ctx, "/events", query)
	if err != nil {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

type SearchResult struct {
	Events  []Event  `json:"events"`
	Markets []Market `json:"markets"`
}

// Search queries the public search endpoint with a free-text question.
func (c *Client) Search(ctx context.Context, q string, limit int) (*SearchResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}
	query := url.Values{}
	query.Set("q", q)
	query.Set("limit_per_type", strconv.Itoa(limit))
	body, err := c.doRequest(ctx, "/public-search", query)
	if err != nil {
		return nil, err
	}
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}
	return &result, nil
}
