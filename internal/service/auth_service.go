package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/auth"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/middleware"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/storage"
)

// AuthService handles registration, login and the current-user endpoint.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// handleRegister creates a new account and returns a session token.
func (s *AuthService) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayload[credentialsRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		respondWithError(w, http.StatusBadRequest, "email and display name are required", nil)
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		slog.Warn("Registration failed", "email", req.Email, "error", err)
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			code = http.StatusConflict
		case errors.Is(err, auth.ErrWeakPassword):
			code = http.StatusBadRequest
		}
		respondWithError(w, code, auth.Friendly(err), err)
		return
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not create session", err)
		return
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	respondWithJSON(w, http.StatusCreated, sessionResponse{User: user, Token: token})
}

// handleLogin authenticates a user and returns a session token.
func (s *AuthService) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayload[credentialsRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, auth.Friendly(auth.ErrInvalidCredentials), nil)
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("Login failed", "email", req.Email)
		respondWithError(w, http.StatusUnauthorized, auth.Friendly(err), nil)
		return
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not create session", err)
		return
	}

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email)
	respondWithJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}

// handleMe returns the authenticated user's account.
func (s *AuthService) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := s.users.GetUserByID(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "could not load account", err)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "account not found", nil)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
