package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/auth"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/household"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/resolver"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/storage/sqlite"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/viewmodel"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	dir := t.TempDir()

	userStore, err := sqlite.New(filepath.Join(dir, "users.db"))
	if err != nil {
		t.Fatalf("failed to open user store: %v", err)
	}
	t.Cleanup(func() { userStore.Close() })

	docStore, err := docstore.Open(filepath.Join(dir, "weddings.db"))
	if err != nil {
		t.Fatalf("failed to open document store: %v", err)
	}
	t.Cleanup(func() { docStore.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authService := NewAuthService(auth.NewPasswordAuthenticator(userStore), jwtManager, userStore)
	weddingService := NewWeddingService(docStore, resolver.New(docStore), userStore)
	return SetupMux(authService, weddingService, jwtManager)
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func register(t *testing.T, mux *http.ServeMux, email, name string) sessionResponse {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "displayName": name, "password": "a long password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[sessionResponse](t, rec)
}

func TestRegisterLoginMe(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "a long password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[sessionResponse](t, rec)

	rec = doJSON(t, mux, http.MethodGet, "/api/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me returned %d: %s", rec.Code, rec.Body.String())
	}
	me := decodeBody[models.User](t, rec)
	if me.Email != "ada@example.com" || me.DisplayName != "Ada" {
		t.Errorf("unexpected account: %+v", me)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	mux := newTestMux(t)
	register(t, mux, "ada@example.com", "Ada")

	rec := doJSON(t, mux, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "not the password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestWeddingRequiresAuth(t *testing.T) {
	mux := newTestMux(t)
	rec := doJSON(t, mux, http.MethodGet, "/api/wedding", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestGetWeddingBootstraps(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")

	rec := doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get wedding returned %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeBody[household.State](t, rec)
	if state.ID == "" {
		t.Error("expected a wedding id")
	}
	if state.TotalBudget != models.DefaultTotalBudget {
		t.Errorf("expected default budget %v, got %v", models.DefaultTotalBudget, state.TotalBudget)
	}
	if len(state.Categories) != 9 {
		t.Errorf("expected 9 seeded categories, got %d", len(state.Categories))
	}
	if len(state.Members) != 1 || state.Members[0].Role != models.RoleOwner {
		t.Errorf("expected a single owner member, got %+v", state.Members)
	}
}

func TestSettingsUpdate(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)

	rec := doJSON(t, mux, http.MethodPut, "/api/wedding/settings", session.Token, map[string]any{
		"totalBudget": 42000.0, "darkMode": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	state := decodeBody[household.State](t, rec)
	if state.TotalBudget != 42000 || !state.DarkMode {
		t.Errorf("settings not applied: budget=%v darkMode=%v", state.TotalBudget, state.DarkMode)
	}
	if state.CostPerGuest != models.DefaultCostPerGuest {
		t.Errorf("untouched setting changed: %v", state.CostPerGuest)
	}
}

func TestSettingsRejectsNegative(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")

	rec := doJSON(t, mux, http.MethodPut, "/api/wedding/settings", session.Token, map[string]any{
		"totalBudget": -5.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": "venue", "description": "Deposit", "vendor": "Grand Hall",
		"amount": 1200.0, "status": "paid", "date": "2026-04-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense returned %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[models.Expense](t, rec)
	if created.ID == "" {
		t.Fatal("expected a generated expense id")
	}
	if created.CreatedBy != "ada@example.com" {
		t.Errorf("expected creator stamp, got %q", created.CreatedBy)
	}

	rec = doJSON(t, mux, http.MethodPatch, "/api/wedding/expenses/"+created.ID, session.Token, map[string]any{
		"amount": 1500.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update expense returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	state := decodeBody[household.State](t, rec)
	if len(state.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(state.Expenses))
	}
	if state.Expenses[0].Amount != 1500 || state.Expenses[0].Description != "Deposit" {
		t.Errorf("merge lost fields: %+v", state.Expenses[0])
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/wedding/expenses/"+created.ID, session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete expense returned %d", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	state = decodeBody[household.State](t, rec)
	if len(state.Expenses) != 0 {
		t.Errorf("expected no expenses after delete, got %d", len(state.Expenses))
	}
}

func TestExpenseValidation(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing description", map[string]any{"amount": 10.0}},
		{"negative amount", map[string]any{"description": "x", "amount": -1.0}},
		{"bad status", map[string]any{"description": "x", "status": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, tt.payload)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCategoryCascadeDelete(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/wedding/categories", session.Token, map[string]any{
		"name": "Honeymoon Fund", "icon": "🏝️", "budget": 3000.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add category returned %d: %s", rec.Code, rec.Body.String())
	}
	category := decodeBody[models.Category](t, rec)
	if category.ID != "honeymoon-fund" {
		t.Errorf("expected slug id, got %q", category.ID)
	}

	doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": category.ID, "description": "Flights", "amount": 900.0,
	})
	doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": "venue", "description": "Deposit", "amount": 1000.0,
	})

	rec = doJSON(t, mux, http.MethodDelete, "/api/wedding/categories/"+category.ID, session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete category returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	state := decodeBody[household.State](t, rec)
	for _, c := range state.Categories {
		if c.ID == category.ID {
			t.Error("category still present after delete")
		}
	}
	if len(state.Expenses) != 1 || state.Expenses[0].Category != "venue" {
		t.Errorf("cascade left wrong expenses: %+v", state.Expenses)
	}
}

func TestGuestsAndVendors(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/wedding/guests", session.Token, map[string]any{
		"name": "Grace",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add guest returned %d: %s", rec.Code, rec.Body.String())
	}
	guest := decodeBody[models.Guest](t, rec)
	if guest.Status != models.RSVPPending {
		t.Errorf("expected default pending status, got %q", guest.Status)
	}

	rec = doJSON(t, mux, http.MethodPatch, "/api/wedding/guests/"+guest.ID, session.Token, map[string]any{
		"status": models.RSVPConfirmed,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update guest returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/wedding/vendors", session.Token, map[string]any{
		"name": "Grand Hall", "category": "venue", "phone": "555-0100",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add vendor returned %d: %s", rec.Code, rec.Body.String())
	}
	vendor := decodeBody[models.Vendor](t, rec)

	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	state := decodeBody[household.State](t, rec)
	if len(state.Guests) != 1 || state.Guests[0].Status != models.RSVPConfirmed {
		t.Errorf("unexpected guests: %+v", state.Guests)
	}
	if len(state.Vendors) != 1 || state.Vendors[0].Name != "Grand Hall" {
		t.Errorf("unexpected vendors: %+v", state.Vendors)
	}

	rec = doJSON(t, mux, http.MethodDelete, "/api/wedding/vendors/"+vendor.ID, session.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete vendor returned %d", rec.Code)
	}
}

func TestInviteJoinsPartner(t *testing.T) {
	mux := newTestMux(t)
	owner := register(t, mux, "ada@example.com", "Ada")

	rec := doJSON(t, mux, http.MethodGet, "/api/wedding", owner.Token, nil)
	ownerState := decodeBody[household.State](t, rec)

	rec = doJSON(t, mux, http.MethodPost, "/api/wedding/invites", owner.Token, map[string]string{
		"email": "grace@example.com",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("send invite returned %d: %s", rec.Code, rec.Body.String())
	}

	partner := register(t, mux, "grace@example.com", "Grace")
	rec = doJSON(t, mux, http.MethodGet, "/api/wedding", partner.Token, nil)
	partnerState := decodeBody[household.State](t, rec)

	if partnerState.ID != ownerState.ID {
		t.Fatalf("partner landed in wedding %s, want %s", partnerState.ID, ownerState.ID)
	}
	if len(partnerState.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(partnerState.Members))
	}
	roles := map[string]string{}
	for _, m := range partnerState.Members {
		roles[m.Email] = m.Role
	}
	if roles["grace@example.com"] != models.RolePartner {
		t.Errorf("expected partner role, got %q", roles["grace@example.com"])
	}
}

func TestInviteRejectsSelf(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")

	rec := doJSON(t, mux, http.MethodPost, "/api/wedding/invites", session.Token, map[string]string{
		"email": "Ada@Example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)

	doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": "venue", "description": "Deposit", "amount": 1000.0, "status": "paid",
	})
	doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": "catering", "description": "Tasting", "amount": 250.0,
	})

	rec := doJSON(t, mux, http.MethodGet, "/api/wedding/summary", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[struct {
		Summary       viewmodel.Summary  `json:"summary"`
		CategorySpend map[string]float64 `json:"categorySpend"`
		Expenses      []models.Expense   `json:"expenses"`
	}](t, rec)
	if summary.Summary.TotalSpent != 1250 {
		t.Errorf("expected total spent 1250, got %v", summary.Summary.TotalSpent)
	}
	if summary.CategorySpend["venue"] != 1000 {
		t.Errorf("expected venue spend 1000, got %v", summary.CategorySpend["venue"])
	}
	if len(summary.Expenses) != 2 {
		t.Errorf("expected 2 expenses, got %d", len(summary.Expenses))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/wedding/summary?status=paid", session.Token, nil)
	filtered := decodeBody[struct {
		Expenses []models.Expense `json:"expenses"`
	}](t, rec)
	if len(filtered.Expenses) != 1 || filtered.Expenses[0].Description != "Deposit" {
		t.Errorf("status filter failed: %+v", filtered.Expenses)
	}
}

func TestExportEndpoint(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")
	doJSON(t, mux, http.MethodGet, "/api/wedding", session.Token, nil)
	doJSON(t, mux, http.MethodPost, "/api/wedding/expenses", session.Token, map[string]any{
		"category": "venue", "description": "Deposit", "amount": 1000.0,
	})

	rec := doJSON(t, mux, http.MethodGet, "/api/wedding/export", session.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export returned %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Category,Description,Vendor,Amount,Status,Date") {
		t.Errorf("unexpected CSV header: %q", body)
	}
	if !strings.Contains(body, "Deposit") {
		t.Errorf("expense missing from export: %q", body)
	}
}

func TestTokenViaQueryParam(t *testing.T) {
	mux := newTestMux(t)
	session := register(t, mux, "ada@example.com", "Ada")

	req := httptest.NewRequest(http.MethodGet, "/api/me?access_token="+session.Token, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 via query token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)
	rec := doJSON(t, mux, http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
