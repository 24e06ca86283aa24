package models

import (
	"strings"
	"time"
)

// ReferenceKind discriminates how the user pointed at an event.
type ReferenceKind string

const (
	ReferenceFreeText  ReferenceKind = "free_text"
	ReferenceMarketURL ReferenceKind = "market_url"
	ReferenceSlug      ReferenceKind = "slug"
)

// EventReference is the opaque user input handed to the gateway.
type EventReference struct {
	Kind  ReferenceKind
	Value string
}

func (r EventReference) IsZero() bool {
	return strings.TrimSpace(r.Value) == ""
}

// FamilyType describes how the outcome set of an event resolves.
type FamilyType string

const (
	FamilyBinary            FamilyType = "binary"
	FamilyMutuallyExclusive FamilyType = "mutually_exclusive"
	FamilyConditional       FamilyType = "conditional"
	FamilyHybrid            FamilyType = "hybrid"
)

// Category is the coarse event category used for dimension assignment and
// calibrator selection.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryGeopolitics   Category = "geopolitics"
	CategoryEconomy       Category = "economy"
	CategoryTechnology    Category = "technology"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
)

// Outcome is one resolvable option of an event. MarketProbability is the
// market-implied probability in [0,100], nil when the source had no usable
// price.
type Outcome struct {
	Name              string   `json:"name"`
	MarketProbability *float64 `json:"market_probability,omitempty"`
	Active            bool     `json:"active"`
	DerivedGroupKey   string   `json:"derived_group_key,omitempty"`
	// TokenID is the CLOB token backing this outcome, kept for the
	// order-book last resort of the low-probability filter.
	TokenID string `json:"token_id,omitempty"`
}

// EnrichmentContext carries optional auxiliary context injected into prompts.
// Absent fields leave the pipeline unchanged.
type EnrichmentContext struct {
	WorldTemperature *float64 `json:"world_temperature,omitempty"`
	WorldDescription string   `json:"world_description,omitempty"`
	NewsSummary      string   `json:"news_summary,omitempty"`
}

// Event is the canonical resolved form produced by the gateway. Instances are
// immutable once built; each pipeline invocation gets a fresh graph.
type Event struct {
	Question       string     `json:"question"`
	Rules          string     `json:"rules,omitempty"`
	MarketSlug     string     `json:"market_slug,omitempty"`
	MarketID       string     `json:"market_id,omitempty"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`
	// DaysToResolution is derived from ResolutionDate at resolve time;
	// nil when the source carried no end date.
	DaysToResolution *float64  `json:"days_to_resolution,omitempty"`
	Outcomes         []Outcome `json:"outcomes"`
	// MarketProbability is the event-level implied probability for
	// single-outcome markets.
	MarketProbability *float64 `json:"market_probability,omitempty"`

	FamilyType FamilyType `json:"family_type"`
	Category   Category   `json:"category"`
	// FamilySource names the classification rule that decided FamilyType.
	FamilySource string `json:"family_source,omitempty"`

	Enrichment *EnrichmentContext `json:"enrichment,omitempty"`
	IsMock     bool               `json:"is_mock"`
	Source     string             `json:"source,omitempty"`
}

func (e *Event) IsMultiOption() bool {
	return len(e.Outcomes) > 1
}

// ActiveOutcomes returns the indices of outcomes still tradeable.
func (e *Event) ActiveOutcomes() []int {
	idx := make([]int, 0, len(e.Outcomes))
	for i, o := range e.Outcomes {
		if o.Active {
			idx = append(idx, i)
		}
	}
	return idx
}
