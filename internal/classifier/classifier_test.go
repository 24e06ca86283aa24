package classifier

import (
	"testing"

	"go.uber.org/zap"

	"polyforecast/internal/models"
)

func classify(t *testing.T, ev *models.Event) *models.Event {
	t.Helper()
	New(zap.NewNop()).Classify(ev)
	return ev
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		question string
		want     models.Category
	}{
		{"Will Russia and Ukraine reach a ceasefire in 2026?", models.CategoryGeopolitics},
		{"Will the Fed cut interest rates in September?", models.CategoryEconomy},
		{"Will Bitcoin close above $100k this year?", models.CategoryEconomy},
		{"Who will win the presidential election?", models.CategoryPolitics},
		{"Will Apple launch a foldable iPhone?", models.CategoryTechnology},
		{"Who will win the World Cup?", models.CategorySports},
		{"Will the movie win an Oscar?", models.CategoryEntertainment},
		{"Will the mystery box contain cheese?", models.CategoryOther},
	}
	for _, tt := range tests {
		ev := classify(t, &models.Event{Question: tt.question, Outcomes: []models.Outcome{{Name: "Yes"}}})
		if ev.Category != tt.want {
			t.Fatalf("category(%q) = %s, want %s", tt.question, ev.Category, tt.want)
		}
	}
}

func TestClassifyFamilySingleOutcome(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Will it rain tomorrow?",
		Outcomes: []models.Outcome{{Name: "Yes"}},
	})
	if ev.FamilyType != models.FamilyBinary {
		t.Fatalf("family = %s, want binary", ev.FamilyType)
	}
	if ev.FamilySource != "single_outcome" {
		t.Fatalf("family rule = %q, want single_outcome", ev.FamilySource)
	}
}

func TestClassifyFamilyExclusive(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Who will win the election?",
		Outcomes: []models.Outcome{{Name: "A"}, {Name: "B"}},
	})
	if ev.FamilyType != models.FamilyMutuallyExclusive {
		t.Fatalf("family = %s, want mutually_exclusive", ev.FamilyType)
	}
	if ev.FamilySource != "exclusive_winner_phrasing" {
		t.Fatalf("family rule = %q", ev.FamilySource)
	}
}

func TestClassifyFamilyConditional(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Outcomes if the bill passes before March",
		Outcomes: []models.Outcome{{Name: "A"}, {Name: "B"}},
	})
	if ev.FamilyType != models.FamilyConditional {
		t.Fatalf("family = %s, want conditional", ev.FamilyType)
	}
	if ev.FamilySource != "conditional_phrasing" {
		t.Fatalf("family rule = %q", ev.FamilySource)
	}
}

func TestClassifyFamilyHybrid(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Who will win the election if the incumbent withdraws?",
		Outcomes: []models.Outcome{{Name: "A"}, {Name: "B"}},
	})
	if ev.FamilyType != models.FamilyHybrid {
		t.Fatalf("family = %s, want hybrid", ev.FamilyType)
	}
}

func TestClassifyFamilyDateBucket(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "When will the bill pass?",
		Outcomes: []models.Outcome{{Name: "by Oct 30"}, {Name: "by Nov 15"}, {Name: "by Dec 1"}},
	})
	if ev.FamilyType != models.FamilyConditional {
		t.Fatalf("family = %s, want conditional", ev.FamilyType)
	}
	if ev.FamilySource != "date_bucket" {
		t.Fatalf("family rule = %q, want date_bucket", ev.FamilySource)
	}
}

func TestClassifyFamilyThresholdBucket(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Bitcoin price milestones this year",
		Outcomes: []models.Outcome{
			{Name: "$100k or more"},
			{Name: "$120k or more"},
			{Name: "$150k or more"},
		},
	})
	if ev.FamilyType != models.FamilyConditional {
		t.Fatalf("family = %s, want conditional", ev.FamilyType)
	}
	if ev.FamilySource != "threshold_bucket" {
		t.Fatalf("family rule = %q, want threshold_bucket", ev.FamilySource)
	}
}

func TestClassifyFamilyGroupedDefault(t *testing.T) {
	ev := classify(t, &models.Event{
		Question: "Next month's inflation print",
		Outcomes: []models.Outcome{{Name: "Under 2%"}, {Name: "2-3%"}, {Name: "Over 3%"}},
	})
	if ev.FamilyType != models.FamilyMutuallyExclusive {
		t.Fatalf("family = %s, want mutually_exclusive default", ev.FamilyType)
	}
	if ev.FamilySource != "grouped_default" {
		t.Fatalf("family rule = %q, want grouped_default", ev.FamilySource)
	}
}

func TestAssignDimensionsDeterministic(t *testing.T) {
	a := AssignDimensions([]string{"gpt", "claude", "gemini"}, models.CategoryEconomy)
	b := AssignDimensions([]string{"gemini", "gpt", "claude"}, models.CategoryEconomy)
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("assignments incomplete: %v / %v", a, b)
	}
	for id, dim := range a {
		if b[id] != dim {
			t.Fatalf("assignment for %s differs across input orders: %s vs %s", id, dim, b[id])
		}
	}
}

func TestAssignDimensionsSpreadsModels(t *testing.T) {
	assigned := AssignDimensions([]string{"a", "b", "c", "d"}, models.CategoryPolitics)
	seen := map[Dimension]int{}
	for _, dim := range assigned {
		seen[dim]++
	}
	// Four models over four politics dimensions: all distinct.
	if len(seen) != 4 {
		t.Fatalf("dimensions not spread: %v", assigned)
	}
}

func TestAssignDimensionsUnknownCategory(t *testing.T) {
	assigned := AssignDimensions([]string{"a"}, models.Category("weird"))
	if len(assigned) != 1 || assigned["a"] == "" {
		t.Fatalf("unknown category must fall back to defaults: %v", assigned)
	}
}

func TestDimensionDescribe(t *testing.T) {
	for _, dim := range []Dimension{
		DimensionHistoricalPatterns, DimensionDataTrends, DimensionMarketSentiment,
		DimensionContrarianView, DimensionTailRisk, DimensionInstitutional, DimensionPublicOpinion,
	} {
		if dim.Describe() == "" {
			t.Fatalf("dimension %s has no description", dim)
		}
	}
}
