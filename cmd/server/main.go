package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/auth"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/middleware"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/resolver"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/service"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/storage/sqlite"
	"github.com/davidadedeji/wedding-budget-tracker-v4/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Ignoring non-numeric env value", "key", key, "value", value)
	}
	return fallback
}

func main() {
	logging.Setup()

	port := getEnvInt("PORT", 8080)
	usersDBPath := getEnv("USERS_DB_PATH", "./data/users.db")
	docsDBPath := getEnv("DOCS_DB_PATH", "./data/weddings.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	tokenTTL := time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour

	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	userStore, err := sqlite.New(usersDBPath)
	if err != nil {
		slog.Error("Failed to initialize user storage", "error", err)
		os.Exit(1)
	}
	defer userStore.Close()
	slog.Info("User storage initialized", "database", usersDBPath)

	docStore, err := docstore.Open(docsDBPath)
	if err != nil {
		slog.Error("Failed to initialize document store", "error", err)
		os.Exit(1)
	}
	defer docStore.Close()
	slog.Info("Document store initialized", "database", docsDBPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenTTL)
	authenticator := auth.NewPasswordAuthenticator(userStore)
	res := resolver.New(docStore)

	authService := service.NewAuthService(authenticator, jwtManager, userStore)
	weddingService := service.NewWeddingService(docStore, res, userStore)

	mux := service.SetupMux(authService, weddingService, jwtManager)

	handler := middleware.Logging(middleware.CORS(mux))

	// h2c lets browsers multiplex the snapshot stream alongside API calls
	// without TLS termination in front.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%d", port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
