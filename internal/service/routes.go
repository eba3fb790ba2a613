package service

import (
	"net/http"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/auth"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/metrics"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/middleware"
)

// SetupMux registers every route on a fresh mux. All wedding routes require
// a valid token; auth routes and health are open.
func SetupMux(authService *AuthService, weddingService *WeddingService, jwtManager *auth.JWTManager) *http.ServeMux {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAuth(jwtManager, h)
	}

	mux.HandleFunc("POST /api/register", authService.handleRegister)
	mux.HandleFunc("POST /api/login", authService.handleLogin)
	mux.HandleFunc("GET /api/me", authed(authService.handleMe))

	mux.HandleFunc("GET /api/wedding", authed(weddingService.handleGetWedding))
	mux.HandleFunc("GET /api/wedding/stream", authed(weddingService.handleStream))
	mux.HandleFunc("PUT /api/wedding/settings", authed(weddingService.handleUpdateSettings))

	mux.HandleFunc("POST /api/wedding/categories", authed(weddingService.handleAddCategory))
	mux.HandleFunc("DELETE /api/wedding/categories/{id}", authed(weddingService.handleDeleteCategory))

	mux.HandleFunc("POST /api/wedding/expenses", authed(weddingService.handleAddExpense))
	mux.HandleFunc("PATCH /api/wedding/expenses/{id}", authed(weddingService.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/wedding/expenses/{id}", authed(weddingService.handleDeleteExpense))

	mux.HandleFunc("POST /api/wedding/guests", authed(weddingService.handleAddGuest))
	mux.HandleFunc("PATCH /api/wedding/guests/{id}", authed(weddingService.handleUpdateGuest))
	mux.HandleFunc("DELETE /api/wedding/guests/{id}", authed(weddingService.handleDeleteGuest))

	mux.HandleFunc("POST /api/wedding/vendors", authed(weddingService.handleAddVendor))
	mux.HandleFunc("DELETE /api/wedding/vendors/{id}", authed(weddingService.handleDeleteVendor))

	mux.HandleFunc("POST /api/wedding/invites", authed(weddingService.handleSendInvite))
	mux.HandleFunc("GET /api/wedding/summary", authed(weddingService.handleSummary))
	mux.HandleFunc("GET /api/wedding/export", authed(weddingService.handleExport))

	mux.HandleFunc("GET /api/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}
