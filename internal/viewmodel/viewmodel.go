// Package viewmodel computes presentation-ready aggregates from a wedding
// snapshot: totals, per-category spend, filtered expense lists, and chart
// series. Every function is pure; state goes in, derived values come out,
// and nothing here ever mutates a snapshot.
package viewmodel

import (
	"sort"
	"strings"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/household"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

// Summary is the headline budget arithmetic for one wedding.
type Summary struct {
	// TotalSpent is the sum of all expense amounts.
	TotalSpent float64 `json:"totalSpent"`

	// TotalPaid is the sum of amounts with status paid.
	TotalPaid float64 `json:"totalPaid"`

	// Remaining is totalBudget minus TotalSpent. Negative when over
	// budget.
	Remaining float64 `json:"remaining"`

	// PercentUsed is TotalSpent over totalBudget as a percentage,
	// clamped to [0, 100] for display. A zero budget reads as 0.
	PercentUsed float64 `json:"percentUsed"`

	// OverBudget is computed from the unclamped ratio, so the warning
	// fires even though PercentUsed caps at 100.
	OverBudget bool `json:"overBudget"`
}

// Summarize computes the Summary for a snapshot.
func Summarize(st household.State) Summary {
	var spent, paid float64
	for _, e := range st.Expenses {
		spent += e.Amount
		if e.Status == models.StatusPaid {
			paid += e.Amount
		}
	}

	s := Summary{
		TotalSpent: spent,
		TotalPaid:  paid,
		Remaining:  st.TotalBudget - spent,
	}
	if st.TotalBudget > 0 {
		pct := spent / st.TotalBudget * 100
		if pct > 100 {
			pct = 100
			s.OverBudget = true
		}
		s.PercentUsed = pct
	}
	return s
}

// CategorySpend sums expense amounts per category id. Expenses referencing
// a category that no longer exists contribute to no bucket; dangling
// references under-count rather than explode.
func CategorySpend(st household.State) map[string]float64 {
	spend := make(map[string]float64, len(st.Categories))
	for _, c := range st.Categories {
		spend[c.ID] = 0
	}
	for _, e := range st.Expenses {
		if _, ok := spend[e.Category]; ok {
			spend[e.Category] += e.Amount
		}
	}
	return spend
}

// ExpenseFilter selects a subset of expenses. Zero values mean "no
// constraint" for each field.
type ExpenseFilter struct {
	// Category matches Expense.Category exactly.
	Category string

	// Status matches Expense.Status exactly.
	Status string

	// Search is a case-insensitive substring matched against the
	// description or the vendor name.
	Search string
}

// FilterExpenses applies the filter and returns matches sorted by date
// string, newest first. Dates compare as plain strings (ISO dates sort
// correctly; anything else is garbage in, garbage out), and expenses with
// no date sort last.
func FilterExpenses(expenses []models.Expense, f ExpenseFilter) []models.Expense {
	needle := strings.ToLower(f.Search)

	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Description), needle) &&
			!strings.Contains(strings.ToLower(e.Vendor), needle) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// ChartSlice is one wedge of the spend-breakdown chart.
type ChartSlice struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`

	// Angle is the wedge size in degrees: amount over total spend times
	// 360.
	Angle float64 `json:"angle"`
}

// SpendBreakdown returns a proportional series over the categories with
// nonzero spend, in the snapshot's category order.
func SpendBreakdown(st household.State) []ChartSlice {
	spend := CategorySpend(st)
	var total float64
	for _, amount := range spend {
		total += amount
	}

	slices := []ChartSlice{}
	if total <= 0 {
		return slices
	}
	for _, c := range st.Categories {
		amount := spend[c.ID]
		if amount <= 0 {
			continue
		}
		slices = append(slices, ChartSlice{
			CategoryID: c.ID,
			Name:       c.Name,
			Amount:     amount,
			Angle:      amount / total * 360,
		})
	}
	return slices
}

// BudgetComparison pairs a category's planned budget with its actual spend.
type BudgetComparison struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Planned    float64 `json:"planned"`
	Actual     float64 `json:"actual"`
}

// PlannedVsActual returns a paired series over the categories with a
// nonzero budget or nonzero spend, in the snapshot's category order.
func PlannedVsActual(st household.State) []BudgetComparison {
	spend := CategorySpend(st)

	out := []BudgetComparison{}
	for _, c := range st.Categories {
		actual := spend[c.ID]
		if c.Budget <= 0 && actual <= 0 {
			continue
		}
		out = append(out, BudgetComparison{
			CategoryID: c.ID,
			Name:       c.Name,
			Planned:    c.Budget,
			Actual:     actual,
		})
	}
	return out
}
