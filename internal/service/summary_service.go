package service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/export"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/viewmodel"
)

// summaryResponse bundles every derived view of the wedding into one
// payload: headline totals, per-category spend, the filtered expense list
// and both chart series.
type summaryResponse struct {
	Summary         viewmodel.Summary            `json:"summary"`
	CategorySpend   map[string]float64           `json:"categorySpend"`
	Expenses        []models.Expense             `json:"expenses"`
	SpendBreakdown  []viewmodel.ChartSlice       `json:"spendBreakdown"`
	PlannedVsActual []viewmodel.BudgetComparison `json:"plannedVsActual"`
}

// handleSummary computes the derived views over the current state. The
// category, status and q query parameters filter the expense list; the
// aggregates always cover the full state.
func (s *WeddingService) handleSummary(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	state, err := adapter.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not read wedding", err)
		return
	}

	filter := viewmodel.ExpenseFilter{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("q"),
	}

	respondWithJSON(w, http.StatusOK, summaryResponse{
		Summary:         viewmodel.Summarize(state),
		CategorySpend:   viewmodel.CategorySpend(state),
		Expenses:        viewmodel.FilterExpenses(state.Expenses, filter),
		SpendBreakdown:  viewmodel.SpendBreakdown(state),
		PlannedVsActual: viewmodel.PlannedVsActual(state),
	})
}

// handleExport streams the expense list as a CSV download.
func (s *WeddingService) handleExport(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	state, err := adapter.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not read wedding", err)
		return
	}

	filename := "wedding-expenses-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteExpensesCSV(w, state); err != nil {
		slog.Error("could not write CSV export", "wedding_id", adapter.WeddingID(), "error", err)
	}
}
