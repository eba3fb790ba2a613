// Package household maintains a live, typed projection of one wedding
// document and provides the scoped mutation primitives everything above the
// document store goes through. One Adapter is bound to one wedding id; the
// raw store is never handed to the service layer.
package household

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

// ErrNoWedding is returned by write operations when the adapter is not
// bound to a wedding. Writes before resolution completes are a caller bug
// and are reported, not silently dropped.
var ErrNoWedding = errors.New("household: no wedding bound")

// Adapter scopes reads, writes and subscriptions to a single wedding's
// subtree.
type Adapter struct {
	store     *docstore.Store
	weddingID string

	mu   sync.Mutex
	sub  *docstore.Subscription
	done chan struct{}
}

// NewAdapter binds an adapter to the wedding with the given id.
func NewAdapter(store *docstore.Store, weddingID string) *Adapter {
	return &Adapter{store: store, weddingID: weddingID}
}

// WeddingID returns the bound wedding id.
func (a *Adapter) WeddingID() string {
	return a.weddingID
}

func (a *Adapter) path(rel string) string {
	if rel == "" {
		return "weddings/" + a.weddingID
	}
	return "weddings/" + a.weddingID + "/" + rel
}

// Snapshot performs a one-shot read of the wedding and returns its
// normalized state. A missing document yields the default empty state, not
// an error.
func (a *Adapter) Snapshot(ctx context.Context) (State, error) {
	if a.weddingID == "" {
		return State{}, ErrNoWedding
	}
	var doc weddingDoc
	ok, err := a.store.Get(ctx, a.path(""), &doc)
	if err != nil {
		return State{}, fmt.Errorf("failed to read wedding %s: %w", a.weddingID, err)
	}
	if !ok {
		return normalize(a.weddingID, weddingDoc{}), nil
	}
	return normalize(a.weddingID, doc), nil
}

// Subscribe opens a continuous subscription to the wedding subtree and
// invokes onSnapshot with a normalized state for the initial attach and
// after every change. Any previous subscription on this adapter is torn
// down first; subscriptions hold store-side listener resources and must not
// dangle.
func (a *Adapter) Subscribe(onSnapshot func(State)) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsubscribeLocked()

	sub, err := a.store.Subscribe(a.path(""))
	if err != nil {
		return fmt.Errorf("failed to subscribe to wedding %s: %w", a.weddingID, err)
	}
	done := make(chan struct{})
	a.sub = sub
	a.done = done

	go func() {
		defer close(done)
		for snap := range sub.C() {
			onSnapshot(decodeSnapshot(a.weddingID, snap))
		}
	}()
	return nil
}

// Unsubscribe tears down the current subscription, if any, and waits for
// the delivery goroutine to finish so no onSnapshot call races the caller's
// teardown.
func (a *Adapter) Unsubscribe() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsubscribeLocked()
}

func (a *Adapter) unsubscribeLocked() {
	if a.sub == nil {
		return
	}
	a.sub.Close()
	<-a.done
	a.sub = nil
	a.done = nil
}

// SetField overwrites a single field at a path relative to the wedding
// root, e.g. "totalBudget" or "darkMode".
func (a *Adapter) SetField(ctx context.Context, rel string, value any) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}
	return a.store.Set(ctx, a.path(rel), value)
}

// AddRecord appends a record under a collection path relative to the
// wedding root ("expenses", "guests", "vendors") and returns the generated
// key.
func (a *Adapter) AddRecord(ctx context.Context, rel string, value any) (string, error) {
	if a.weddingID == "" {
		return "", ErrNoWedding
	}
	return a.store.Push(ctx, a.path(rel), value)
}

// SetRecord writes a record under an explicit key, used for categories
// whose ids are caller-provided slugs.
func (a *Adapter) SetRecord(ctx context.Context, rel string, value any) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}
	return a.store.Set(ctx, a.path(rel), value)
}

// UpdateRecord shallow-merges fields into the record at the relative path.
func (a *Adapter) UpdateRecord(ctx context.Context, rel string, fields map[string]any) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}
	return a.store.Update(ctx, a.path(rel), fields)
}

// RemoveRecord deletes the record at the relative path.
func (a *Adapter) RemoveRecord(ctx context.Context, rel string) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}
	return a.store.Delete(ctx, a.path(rel))
}

// DeleteCategory removes a category and every expense referencing it in a
// single atomic multi-path write, so no snapshot ever shows the category
// gone with its expenses still present.
func (a *Adapter) DeleteCategory(ctx context.Context, categoryID string) error {
	if a.weddingID == "" {
		return ErrNoWedding
	}

	var expenses map[string]models.Expense
	if _, err := a.store.Get(ctx, a.path("expenses"), &expenses); err != nil {
		return fmt.Errorf("failed to read expenses: %w", err)
	}

	updates := map[string]any{
		a.path("categories/" + categoryID): nil,
	}
	for id, e := range expenses {
		if e.Category == categoryID {
			updates[a.path("expenses/"+id)] = nil
		}
	}
	return a.store.MultiUpdate(ctx, updates)
}

// IsMember reports whether the given user id has a member record under the
// bound wedding. Every wedding-scoped request checks this before touching
// the document.
func (a *Adapter) IsMember(ctx context.Context, userID string) (bool, error) {
	if a.weddingID == "" {
		return false, ErrNoWedding
	}
	var member models.Member
	ok, err := a.store.Get(ctx, a.path("members/"+userID), &member)
	if err != nil {
		return false, fmt.Errorf("failed to read member record: %w", err)
	}
	return ok, nil
}
