package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/household"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/metrics"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/middleware"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/resolver"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/storage"
)

// WeddingService handles every wedding-scoped endpoint: document reads, the
// snapshot stream, scoped mutations and invites.
type WeddingService struct {
	store    *docstore.Store
	resolver *resolver.Resolver
	users    storage.UserStore
}

// NewWeddingService creates a WeddingService over the given document store
// and account storage.
func NewWeddingService(store *docstore.Store, res *resolver.Resolver, users storage.UserStore) *WeddingService {
	return &WeddingService{store: store, resolver: res, users: users}
}

// currentUser rebuilds the authenticated user from the request context,
// pulling the display name from account storage so member records carry it.
func (s *WeddingService) currentUser(r *http.Request) (*models.User, error) {
	userID := middleware.GetUserID(r.Context())
	user, err := s.users.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Token outlived the account; fall back to the claims.
		return &models.User{ID: userID, Email: middleware.GetEmail(r.Context())}, nil
	}
	return user, nil
}

// adapterFor resolves the requester to their wedding and returns a bound
// adapter. Pending invites are consumed on resolve, so the first request
// after an invite lands in the invited wedding. The membership check
// enforces the document's access rule: only members touch the subtree.
func (s *WeddingService) adapterFor(w http.ResponseWriter, r *http.Request) (*household.Adapter, bool) {
	user, err := s.currentUser(r)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not load account", err)
		return nil, false
	}

	weddingID, err := s.resolver.Resolve(r.Context(), user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not resolve wedding", err)
		return nil, false
	}

	adapter := household.NewAdapter(s.store, weddingID)
	isMember, err := adapter.IsMember(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not verify membership", err)
		return nil, false
	}
	if !isMember {
		respondWithError(w, http.StatusForbidden, "not a member of this wedding", nil)
		return nil, false
	}
	return adapter, true
}

// handleGetWedding resolves the requester (bootstrapping or accepting an
// invite as needed) and returns the normalized wedding state.
func (s *WeddingService) handleGetWedding(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	state, err := adapter.Snapshot(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not read wedding", err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// handleStream serves the wedding as a server-sent-event stream: one
// `snapshot` event on attach and one after every change, each carrying the
// full normalized state. The stream is the client's write acknowledgement
// channel; a write is confirmed when its effect shows up here.
func (s *WeddingService) handleStream(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		respondWithError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	// Capacity-1 with drain-then-send: the callback never blocks, and a
	// slow client sees the latest state rather than a backlog.
	states := make(chan household.State, 1)
	if err := adapter.Subscribe(func(st household.State) {
		select {
		case <-states:
		default:
		}
		states <- st
	}); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not subscribe", err)
		return
	}
	defer adapter.Unsubscribe()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	slog.Info("Snapshot stream opened", "wedding_id", adapter.WeddingID(), "user_id", middleware.GetUserID(r.Context()))
	for {
		select {
		case <-r.Context().Done():
			slog.Info("Snapshot stream closed", "wedding_id", adapter.WeddingID())
			return
		case st := <-states:
			if err := writeSSE(w, "snapshot", st); err != nil {
				slog.Warn("Snapshot stream write failed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

type settingsRequest struct {
	TotalBudget  *float64 `json:"totalBudget"`
	CostPerGuest *float64 `json:"costPerGuest"`
	DarkMode     *bool    `json:"darkMode"`
}

// handleUpdateSettings writes the wedding's scalar settings. Only fields
// present in the payload are touched.
func (s *WeddingService) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[settingsRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if (req.TotalBudget != nil && *req.TotalBudget < 0) ||
		(req.CostPerGuest != nil && *req.CostPerGuest < 0) {
		respondWithError(w, http.StatusBadRequest, "amounts must not be negative", nil)
		return
	}

	fields := map[string]any{}
	if req.TotalBudget != nil {
		fields["totalBudget"] = *req.TotalBudget
	}
	if req.CostPerGuest != nil {
		fields["costPerGuest"] = *req.CostPerGuest
	}
	if req.DarkMode != nil {
		fields["darkMode"] = *req.DarkMode
	}
	if len(fields) == 0 {
		respondWithError(w, http.StatusBadRequest, "no settings provided", nil)
		return
	}

	if err := adapter.UpdateRecord(r.Context(), "", fields); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not update settings", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("settings").Inc()
	respondWithJSON(w, http.StatusOK, fields)
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a stable category id from a display name.
func slugify(name string) string {
	slug := strings.Trim(slugCleaner.ReplaceAllString(strings.ToLower(name), "-"), "-")
	return slug
}

type categoryRequest struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Icon   string  `json:"icon"`
	Budget float64 `json:"budget"`
}

// handleAddCategory creates a category under a slug id.
func (s *WeddingService) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[categoryRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "category name is required", nil)
		return
	}
	if req.Budget < 0 {
		respondWithError(w, http.StatusBadRequest, "budget must not be negative", nil)
		return
	}
	id := req.ID
	if id == "" {
		id = slugify(req.Name)
	}
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "category name yields no usable id", nil)
		return
	}

	category := models.Category{
		Name:      req.Name,
		Icon:      req.Icon,
		Budget:    req.Budget,
		CreatedAt: time.Now().Unix(),
	}
	if err := adapter.SetRecord(r.Context(), "categories/"+id, category); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not add category", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("category").Inc()
	category.ID = id
	respondWithJSON(w, http.StatusCreated, category)
}

// handleDeleteCategory removes a category and cascades to its expenses.
func (s *WeddingService) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := adapter.DeleteCategory(r.Context(), id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not delete category", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("category").Inc()
	slog.Info("Category deleted", "wedding_id", adapter.WeddingID(), "category", id)
	w.WriteHeader(http.StatusNoContent)
}

type expenseRequest struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Vendor      string   `json:"vendor"`
	Amount      *float64 `json:"amount"`
	Status      string   `json:"status"`
	Date        string   `json:"date"`
}

// handleAddExpense appends an expense, stamped with the creator's email.
func (s *WeddingService) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[expenseRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Description == "" {
		respondWithError(w, http.StatusBadRequest, "description is required", nil)
		return
	}
	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount < 0 {
		respondWithError(w, http.StatusBadRequest, "amount must not be negative", nil)
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusUnpaid
	}
	if status != models.StatusUnpaid && status != models.StatusPaid {
		respondWithError(w, http.StatusBadRequest, "status must be unpaid or paid", nil)
		return
	}

	expense := models.Expense{
		Category:    req.Category,
		Description: req.Description,
		Vendor:      req.Vendor,
		Amount:      amount,
		Status:      status,
		Date:        req.Date,
		CreatedBy:   middleware.GetEmail(r.Context()),
		CreatedAt:   time.Now().Unix(),
	}
	id, err := adapter.AddRecord(r.Context(), "expenses", expense)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not add expense", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("expense").Inc()
	expense.ID = id
	respondWithJSON(w, http.StatusCreated, expense)
}

// handleUpdateExpense merges changed fields into an existing expense.
func (s *WeddingService) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[expenseRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	fields := map[string]any{}
	if req.Category != "" {
		fields["category"] = req.Category
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Vendor != "" {
		fields["vendor"] = req.Vendor
	}
	if req.Amount != nil {
		if *req.Amount < 0 {
			respondWithError(w, http.StatusBadRequest, "amount must not be negative", nil)
			return
		}
		fields["amount"] = *req.Amount
	}
	if req.Status != "" {
		if req.Status != models.StatusUnpaid && req.Status != models.StatusPaid {
			respondWithError(w, http.StatusBadRequest, "status must be unpaid or paid", nil)
			return
		}
		fields["status"] = req.Status
	}
	if req.Date != "" {
		fields["date"] = req.Date
	}
	if len(fields) == 0 {
		respondWithError(w, http.StatusBadRequest, "no fields to update", nil)
		return
	}

	id := r.PathValue("id")
	if err := adapter.UpdateRecord(r.Context(), "expenses/"+id, fields); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not update expense", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("expense").Inc()
	respondWithJSON(w, http.StatusOK, fields)
}

// handleDeleteExpense removes a single expense.
func (s *WeddingService) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.handleRemove(w, r, "expenses/"+r.PathValue("id"), "expense")
}

type guestRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// handleAddGuest appends a guest to the guest list.
func (s *WeddingService) handleAddGuest(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[guestRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "guest name is required", nil)
		return
	}
	status := req.Status
	if status == "" {
		status = models.RSVPPending
	}
	if !validRSVP(status) {
		respondWithError(w, http.StatusBadRequest, "status must be pending, confirmed or declined", nil)
		return
	}

	guest := models.Guest{Name: req.Name, Status: status, CreatedAt: time.Now().Unix()}
	id, err := adapter.AddRecord(r.Context(), "guests", guest)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not add guest", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("guest").Inc()
	guest.ID = id
	respondWithJSON(w, http.StatusCreated, guest)
}

// handleUpdateGuest merges changed fields into a guest record.
func (s *WeddingService) handleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[guestRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Status != "" {
		if !validRSVP(req.Status) {
			respondWithError(w, http.StatusBadRequest, "status must be pending, confirmed or declined", nil)
			return
		}
		fields["status"] = req.Status
	}
	if len(fields) == 0 {
		respondWithError(w, http.StatusBadRequest, "no fields to update", nil)
		return
	}

	id := r.PathValue("id")
	if err := adapter.UpdateRecord(r.Context(), "guests/"+id, fields); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not update guest", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("guest").Inc()
	respondWithJSON(w, http.StatusOK, fields)
}

// handleDeleteGuest removes a guest.
func (s *WeddingService) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	s.handleRemove(w, r, "guests/"+r.PathValue("id"), "guest")
}

type vendorRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

// handleAddVendor appends a vendor contact. Vendors have no update
// operation; corrections are remove-and-re-add.
func (s *WeddingService) handleAddVendor(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[vendorRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "vendor name is required", nil)
		return
	}

	vendor := models.Vendor{
		Name:      req.Name,
		Category:  req.Category,
		Phone:     req.Phone,
		Email:     req.Email,
		Notes:     req.Notes,
		CreatedAt: time.Now().Unix(),
	}
	id, err := adapter.AddRecord(r.Context(), "vendors", vendor)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not add vendor", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("vendor").Inc()
	vendor.ID = id
	respondWithJSON(w, http.StatusCreated, vendor)
}

// handleDeleteVendor removes a vendor contact.
func (s *WeddingService) handleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	s.handleRemove(w, r, "vendors/"+r.PathValue("id"), "vendor")
}

// handleRemove is the shared delete path for single records.
func (s *WeddingService) handleRemove(w http.ResponseWriter, r *http.Request, rel, kind string) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	if err := adapter.RemoveRecord(r.Context(), rel); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not delete "+kind, err)
		return
	}
	metrics.DocumentWrites.WithLabelValues(kind).Inc()
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Email string `json:"email"`
}

// handleSendInvite creates a pending invite addressed to another email.
// The invitee joins as partner the next time they authenticate.
func (s *WeddingService) handleSendInvite(w http.ResponseWriter, r *http.Request) {
	adapter, ok := s.adapterFor(w, r)
	if !ok {
		return
	}
	req, err := decodePayload[inviteRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "invite email is required", nil)
		return
	}
	inviter := middleware.GetEmail(r.Context())
	if strings.EqualFold(req.Email, inviter) {
		respondWithError(w, http.StatusBadRequest, "cannot invite yourself", nil)
		return
	}

	if err := s.resolver.SendInvite(r.Context(), adapter.WeddingID(), inviter, req.Email); err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not send invite", err)
		return
	}
	metrics.DocumentWrites.WithLabelValues("invite").Inc()
	slog.Info("Invite sent", "wedding_id", adapter.WeddingID(), "invited_by", inviter)
	w.WriteHeader(http.StatusNoContent)
}

func validRSVP(status string) bool {
	switch status {
	case models.RSVPPending, models.RSVPConfirmed, models.RSVPDeclined:
		return true
	}
	return false
}

// writeSSE writes one server-sent event with a JSON payload.
func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
