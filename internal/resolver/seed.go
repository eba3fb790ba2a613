package resolver

import "github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"

// DefaultCategories returns the nine spending categories every new wedding
// starts with. Budgets start at zero, meaning unset; couples fill them in
// as they plan.
func DefaultCategories(createdAt int64) map[string]models.Category {
	seeds := []models.Category{
		{ID: "venue", Name: "Venue", Icon: "🏛️"},
		{ID: "catering", Name: "Catering", Icon: "🍽️"},
		{ID: "photography", Name: "Photography", Icon: "📷"},
		{ID: "attire", Name: "Attire & Beauty", Icon: "👗"},
		{ID: "flowers", Name: "Flowers & Decor", Icon: "💐"},
		{ID: "music", Name: "Music & Entertainment", Icon: "🎶"},
		{ID: "stationery", Name: "Stationery", Icon: "✉️"},
		{ID: "transport", Name: "Transportation", Icon: "🚗"},
		{ID: "favors", Name: "Favors & Gifts", Icon: "🎁"},
	}

	categories := make(map[string]models.Category, len(seeds))
	for _, c := range seeds {
		id := c.ID
		c.ID = "" // the key carries the id inside the document
		c.CreatedAt = createdAt
		categories[id] = c
	}
	return categories
}
