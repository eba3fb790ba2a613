package household

import (
	"encoding/json"
	"sort"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

// State is the normalized projection of one wedding document: every mapping
// converted to an ordered slice with the document key injected as the
// record id, and optional scalar fields filled with their defaults. State
// is a value; consumers never mutate a shared copy.
type State struct {
	ID           string            `json:"id"`
	Owner        string            `json:"owner"`
	CreatedAt    int64             `json:"createdAt"`
	TotalBudget  float64           `json:"totalBudget"`
	CostPerGuest float64           `json:"costPerGuest"`
	DarkMode     bool              `json:"darkMode"`
	Categories   []models.Category `json:"categories"`
	Expenses     []models.Expense  `json:"expenses"`
	Guests       []models.Guest    `json:"guests"`
	Vendors      []models.Vendor   `json:"vendors"`
	Members      []models.Member   `json:"members"`
}

// weddingDoc mirrors the stored document. Optional scalars are pointers so
// a missing field is distinguishable from a zero value and gets its
// default.
type weddingDoc struct {
	Owner        string                     `json:"owner"`
	CreatedAt    int64                      `json:"createdAt"`
	TotalBudget  *float64                   `json:"totalBudget"`
	CostPerGuest *float64                   `json:"costPerGuest"`
	DarkMode     *bool                      `json:"darkMode"`
	Categories   map[string]models.Category `json:"categories"`
	Expenses     map[string]models.Expense  `json:"expenses"`
	Guests       map[string]models.Guest    `json:"guests"`
	Vendors      map[string]models.Vendor   `json:"vendors"`
	Members      map[string]models.Member   `json:"members"`
}

// decodeSnapshot converts a raw store snapshot into State. A snapshot of a
// document that does not exist yet normalizes to the empty state with
// defaults applied.
func decodeSnapshot(weddingID string, snap docstore.Snapshot) State {
	var doc weddingDoc
	if snap.Exists {
		// Snapshot values are decoded JSON trees; re-marshaling is the
		// plain way to project them onto typed structs.
		if data, err := json.Marshal(snap.Value); err == nil {
			_ = json.Unmarshal(data, &doc)
		}
	}
	return normalize(weddingID, doc)
}

// normalize applies defaults and flattens the document's mappings into
// ordered slices. Records are ordered by creation time with the key as a
// tiebreaker, which reproduces insertion order for records created through
// this API.
func normalize(weddingID string, doc weddingDoc) State {
	st := State{
		ID:           weddingID,
		Owner:        doc.Owner,
		CreatedAt:    doc.CreatedAt,
		TotalBudget:  models.DefaultTotalBudget,
		CostPerGuest: models.DefaultCostPerGuest,
		DarkMode:     false,
		Categories:   []models.Category{},
		Expenses:     []models.Expense{},
		Guests:       []models.Guest{},
		Vendors:      []models.Vendor{},
		Members:      []models.Member{},
	}
	if doc.TotalBudget != nil {
		st.TotalBudget = *doc.TotalBudget
	}
	if doc.CostPerGuest != nil {
		st.CostPerGuest = *doc.CostPerGuest
	}
	if doc.DarkMode != nil {
		st.DarkMode = *doc.DarkMode
	}

	for id, c := range doc.Categories {
		c.ID = id
		st.Categories = append(st.Categories, c)
	}
	sort.Slice(st.Categories, func(i, j int) bool {
		a, b := st.Categories[i], st.Categories[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	for id, e := range doc.Expenses {
		e.ID = id
		st.Expenses = append(st.Expenses, e)
	}
	sort.Slice(st.Expenses, func(i, j int) bool {
		a, b := st.Expenses[i], st.Expenses[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	for id, g := range doc.Guests {
		g.ID = id
		st.Guests = append(st.Guests, g)
	}
	sort.Slice(st.Guests, func(i, j int) bool {
		a, b := st.Guests[i], st.Guests[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	for id, v := range doc.Vendors {
		v.ID = id
		st.Vendors = append(st.Vendors, v)
	}
	sort.Slice(st.Vendors, func(i, j int) bool {
		a, b := st.Vendors[i], st.Vendors[j]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	for uid, m := range doc.Members {
		m.UID = uid
		st.Members = append(st.Members, m)
	}
	sort.Slice(st.Members, func(i, j int) bool {
		a, b := st.Members[i], st.Members[j]
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return a.UID < b.UID
	})

	return st
}
