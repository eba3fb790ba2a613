package household

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "household-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := docstore.Open(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("missing document yields defaults and empty collections", func(t *testing.T) {
		a := NewAdapter(store, "no-such-wedding")
		st, err := a.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if st.TotalBudget != models.DefaultTotalBudget {
			t.Errorf("TotalBudget = %v, want default %v", st.TotalBudget, models.DefaultTotalBudget)
		}
		if st.CostPerGuest != models.DefaultCostPerGuest {
			t.Errorf("CostPerGuest = %v, want default %v", st.CostPerGuest, models.DefaultCostPerGuest)
		}
		if st.DarkMode {
			t.Error("DarkMode should default to false")
		}
		if st.Expenses == nil || len(st.Expenses) != 0 {
			t.Errorf("Expenses should be empty, got %v", st.Expenses)
		}
	})

	t.Run("missing optional fields get defaults, present ones survive", func(t *testing.T) {
		// Document with darkMode set but budgets absent.
		if err := store.Set(ctx, "weddings/w1", map[string]any{
			"owner":    "u1",
			"darkMode": true,
		}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		a := NewAdapter(store, "w1")
		st, err := a.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if !st.DarkMode {
			t.Error("DarkMode = false, want stored true")
		}
		if st.TotalBudget != models.DefaultTotalBudget {
			t.Errorf("TotalBudget = %v, want default", st.TotalBudget)
		}

		// Zero is a legitimate stored value, not a trigger for defaults.
		if err := store.Set(ctx, "weddings/w1/totalBudget", 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		st, err = a.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if st.TotalBudget != 0 {
			t.Errorf("TotalBudget = %v, want stored 0", st.TotalBudget)
		}
	})
}

func TestNormalizationInjectsIDsAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "w2")

	if err := store.Set(ctx, "weddings/w2", map[string]any{
		"expenses": map[string]any{
			"e-later":   map[string]any{"description": "Cake", "amount": 300, "createdAt": 200},
			"e-earlier": map[string]any{"description": "Band", "amount": 900, "createdAt": 100},
		},
		"members": map[string]any{
			"u2": map[string]any{"email": "b@x.com", "role": "partner", "joinedAt": 20},
			"u1": map[string]any{"email": "a@x.com", "role": "owner", "joinedAt": 10},
		},
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	st, err := a.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if len(st.Expenses) != 2 {
		t.Fatalf("Expected 2 expenses, got %d", len(st.Expenses))
	}
	if st.Expenses[0].ID != "e-earlier" || st.Expenses[1].ID != "e-later" {
		t.Errorf("Expense order = [%s %s], want creation order [e-earlier e-later]",
			st.Expenses[0].ID, st.Expenses[1].ID)
	}
	if st.Expenses[0].Description != "Band" {
		t.Errorf("Expense[0] = %+v, want Band", st.Expenses[0])
	}

	if len(st.Members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(st.Members))
	}
	if st.Members[0].UID != "u1" || st.Members[1].UID != "u2" {
		t.Errorf("Member order = [%s %s], want join order [u1 u2]", st.Members[0].UID, st.Members[1].UID)
	}
}

func TestWriteGuards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "")

	if err := a.SetField(ctx, "totalBudget", 1); err != ErrNoWedding {
		t.Errorf("SetField error = %v, want ErrNoWedding", err)
	}
	if _, err := a.AddRecord(ctx, "guests", models.Guest{Name: "x"}); err != ErrNoWedding {
		t.Errorf("AddRecord error = %v, want ErrNoWedding", err)
	}
	if err := a.UpdateRecord(ctx, "expenses/e1", map[string]any{"status": "paid"}); err != ErrNoWedding {
		t.Errorf("UpdateRecord error = %v, want ErrNoWedding", err)
	}
	if err := a.RemoveRecord(ctx, "guests/g1"); err != ErrNoWedding {
		t.Errorf("RemoveRecord error = %v, want ErrNoWedding", err)
	}
	if err := a.Subscribe(func(State) {}); err != ErrNoWedding {
		t.Errorf("Subscribe error = %v, want ErrNoWedding", err)
	}
}

func TestSubscribeDeliversNormalizedSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "w3")

	states := make(chan State, 8)
	if err := a.Subscribe(func(st State) { states <- st }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer a.Unsubscribe()

	// Initial snapshot: document absent, defaults applied.
	select {
	case st := <-states:
		if st.TotalBudget != models.DefaultTotalBudget {
			t.Errorf("Initial TotalBudget = %v, want default", st.TotalBudget)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for initial snapshot")
	}

	if _, err := a.AddRecord(ctx, "guests", models.Guest{Name: "Ada", Status: models.RSVPPending, CreatedAt: 1}); err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}

	select {
	case st := <-states:
		if len(st.Guests) != 1 || st.Guests[0].Name != "Ada" {
			t.Errorf("Snapshot guests = %+v, want [Ada]", st.Guests)
		}
		if st.Guests[0].ID == "" {
			t.Error("Guest id was not injected from the document key")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for snapshot after write")
	}
}

func TestResubscribeTearsDownPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "w4")

	var mu sync.Mutex
	firstCount := 0
	if err := a.Subscribe(func(State) {
		mu.Lock()
		firstCount++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Wait for the initial delivery, then replace the subscription.
	time.Sleep(20 * time.Millisecond)
	second := make(chan State, 8)
	if err := a.Subscribe(func(st State) { second <- st }); err != nil {
		t.Fatalf("Re-subscribe failed: %v", err)
	}
	defer a.Unsubscribe()
	<-second // initial snapshot of the new subscription

	mu.Lock()
	countBefore := firstCount
	mu.Unlock()

	if err := a.SetField(ctx, "totalBudget", 50000); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}

	select {
	case st := <-second:
		if st.TotalBudget != 50000 {
			t.Errorf("TotalBudget = %v, want 50000", st.TotalBudget)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for snapshot on new subscription")
	}

	mu.Lock()
	countAfter := firstCount
	mu.Unlock()
	if countAfter != countBefore {
		t.Errorf("Old subscription kept receiving after re-subscribe: %d -> %d", countBefore, countAfter)
	}
}

func TestDeleteCategoryCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "w5")

	if err := store.Set(ctx, "weddings/w5", map[string]any{
		"categories": map[string]any{
			"venue":    map[string]any{"name": "Venue"},
			"catering": map[string]any{"name": "Catering"},
		},
		"expenses": map[string]any{
			"e1": map[string]any{"category": "venue", "description": "Deposit", "amount": 1000},
			"e2": map[string]any{"category": "venue", "description": "Balance", "amount": 4000},
			"e3": map[string]any{"category": "catering", "description": "Tasting", "amount": 150},
		},
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := a.DeleteCategory(ctx, "venue"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	st, err := a.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(st.Categories) != 1 || st.Categories[0].ID != "catering" {
		t.Errorf("Categories after cascade = %+v, want only catering", st.Categories)
	}
	if len(st.Expenses) != 1 || st.Expenses[0].ID != "e3" {
		t.Errorf("Expenses after cascade = %+v, want only e3", st.Expenses)
	}
}

func TestIsMember(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := NewAdapter(store, "w6")

	if err := store.Set(ctx, "weddings/w6/members/u1", models.Member{
		Email: "a@x.com", Role: models.RoleOwner, JoinedAt: 1,
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ok, err := a.IsMember(ctx, "u1")
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if !ok {
		t.Error("Expected u1 to be a member")
	}

	ok, err = a.IsMember(ctx, "stranger")
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if ok {
		t.Error("Expected stranger to not be a member")
	}
}
