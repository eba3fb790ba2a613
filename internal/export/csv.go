// Package export renders wedding data into downloadable artifacts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/household"
)

// expenseHeader is the fixed column set of the expense export.
var expenseHeader = []string{"Category", "Description", "Vendor", "Amount", "Status", "Date"}

// WriteExpensesCSV writes one row per expense, in snapshot order, with the
// category id resolved to its display name (the raw id stands in when the
// category was deleted) and amounts formatted to two decimal places.
// Quoting follows RFC 4180: embedded quotes are doubled, fields containing
// commas or quotes are wrapped.
func WriteExpensesCSV(w io.Writer, st household.State) error {
	names := make(map[string]string, len(st.Categories))
	for _, c := range st.Categories {
		names[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(expenseHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range st.Expenses {
		category := e.Category
		if name, ok := names[category]; ok {
			category = name
		}
		row := []string{
			category,
			e.Description,
			e.Vendor,
			fmt.Sprintf("%.2f", e.Amount),
			e.Status,
			e.Date,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
