package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

func TestSQLiteStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "wedding-tracker-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("CreateUser then lookup by email and id", func(t *testing.T) {
		user := models.NewUser("ada@example.com", "Ada", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		byEmail, err := store.GetUserByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail == nil || byEmail.ID != user.ID {
			t.Errorf("GetUserByEmail = %+v, want id %s", byEmail, user.ID)
		}
		if byEmail.PasswordHash != "hash" {
			t.Errorf("PasswordHash mismatch: got %q", byEmail.PasswordHash)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID == nil || byID.Email != "ada@example.com" {
			t.Errorf("GetUserByID = %+v, want email ada@example.com", byID)
		}
	})

	t.Run("missing account returns nil without error", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if user != nil {
			t.Errorf("Expected nil for missing account, got %+v", user)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		if err := store.CreateUser(ctx, models.NewUser("ada@example.com", "Other", "h")); err == nil {
			t.Error("Expected error for duplicate email")
		}
	})
}
