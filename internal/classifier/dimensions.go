package classifier

import (
	"sort"

	"polyforecast/internal/models"
)

// Dimension is the analytical angle a model is asked to lead with. Spreading
// models across dimensions keeps the ensemble from collapsing into one
// viewpoint.
type Dimension string

const (
	DimensionHistoricalPatterns Dimension = "historical_patterns"
	DimensionDataTrends         Dimension = "data_trends"
	DimensionMarketSentiment    Dimension = "market_sentiment"
	DimensionContrarianView     Dimension = "contrarian_view"
	DimensionTailRisk           Dimension = "tail_risk"
	DimensionInstitutional      Dimension = "institutional_dynamics"
	DimensionPublicOpinion      Dimension = "public_opinion"
)

// dimensionsByCategory lists the dimensions worth covering per category, in
// priority order.
var dimensionsByCategory = map[models.Category][]Dimension{
	models.CategoryPolitics: {
		DimensionPublicOpinion, DimensionHistoricalPatterns, DimensionInstitutional, DimensionContrarianView,
	},
	models.CategoryGeopolitics: {
		DimensionInstitutional, DimensionTailRisk, DimensionHistoricalPatterns, DimensionContrarianView,
	},
	models.CategoryEconomy: {
		DimensionDataTrends, DimensionMarketSentiment, DimensionHistoricalPatterns, DimensionTailRisk,
	},
	models.CategoryTechnology: {
		DimensionDataTrends, DimensionContrarianView, DimensionMarketSentiment, DimensionHistoricalPatterns,
	},
	models.CategorySports: {
		DimensionHistoricalPatterns, DimensionDataTrends, DimensionPublicOpinion, DimensionTailRisk,
	},
	models.CategoryEntertainment: {
		DimensionPublicOpinion, DimensionMarketSentiment, DimensionHistoricalPatterns, DimensionContrarianView,
	},
	models.CategoryOther: {
		DimensionHistoricalPatterns, DimensionDataTrends, DimensionContrarianView, DimensionTailRisk,
	},
}

// AssignDimensions maps each model to a dimension for the given category.
// Models are walked in lexicographic ID order and dimensions handed out
// round-robin, so the assignment is stable across runs regardless of the
// order the registry enumerates models.
func AssignDimensions(modelIDs []string, category models.Category) map[string]Dimension {
	dims := dimensionsByCategory[category]
	if len(dims) == 0 {
		dims = dimensionsByCategory[models.CategoryOther]
	}
	sorted := make([]string, len(modelIDs))
	copy(sorted, modelIDs)
	sort.Strings(sorted)

	assigned := make(map[string]Dimension, len(sorted))
	for i, id := range sorted {
		assigned[id] = dims[i%len(dims)]
	}
	return assigned
}

// Describe renders a dimension as prompt-ready instruction text.
func (d Dimension) Describe() string {
	switch d {
	case DimensionHistoricalPatterns:
		return "Lead with historical base rates and comparable past events."
	case DimensionDataTrends:
		return "Lead with quantitative data, recent trends and extrapolation."
	case DimensionMarketSentiment:
		return "Lead with current market positioning and sentiment shifts."
	case DimensionContrarianView:
		return "Stress-test the consensus view and argue the strongest counter-case."
	case DimensionTailRisk:
		return "Weigh low-probability, high-impact paths that could flip the outcome."
	case DimensionInstitutional:
		return "Lead with institutional incentives, procedures and power dynamics."
	case DimensionPublicOpinion:
		return "Lead with polling, public opinion and popularity dynamics."
	default:
		return "Weigh all available evidence and reason step by step."
	}
}
