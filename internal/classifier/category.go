package classifier

import "polyforecast/internal/models"

// categoryRules is an ordered table; the first matching entry wins, so the
// narrower categories sit above the broad political buckets.
var categoryRules = []struct {
	category models.Category
	keywords []string
}{
	{models.CategorySports, []string{
		"world cup", "olympics", "championship", "tournament", " nba ", " nfl ",
		" mlb ", " uefa ", "super bowl", "grand slam", "premier league",
	}},
	{models.CategoryEntertainment, []string{
		"oscar", "grammy", "emmy", "box office", "album", "movie", "film",
		" tv series ", "celebrity", "billboard",
	}},
	{models.CategoryTechnology, []string{
		"apple", "google", " gpt", " ai ", "openai", "gemini", "iphone",
		"app store", "technology", "software", "chip", "semiconductor",
		"product launch", " spacex ", "starship",
	}},
	{models.CategoryEconomy, []string{
		" gdp ", "inflation", "interest rate", " fed ", "federal reserve",
		"unemployment", "economy", "recession", "stock", "crypto", "bitcoin",
		"ethereum", "financial", "tariff", " cpi ",
	}},
	{models.CategoryGeopolitics, []string{
		"russia", "china", " war ", "conflict", "ceasefire", "ukraine",
		"taiwan", "israel", "palestine", "geopolitical", " nato ", "sanction",
		"invasion", "treaty",
	}},
	{models.CategoryPolitics, []string{
		"election", "president", "senate", "congress", "parliament",
		"government", "political", "nominee", "vote", "impeach", "governor",
		"prime minister", "cabinet", "legislation",
	}},
}

func classifyCategory(text string) models.Category {
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			return rule.category
		}
	}
	return models.CategoryOther
}
