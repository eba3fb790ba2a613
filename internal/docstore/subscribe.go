package docstore

import "strings"

// Snapshot is a full point-in-time copy of a subscribed subtree. Exists is
// false when nothing is stored at the path; Value is the decoded JSON
// subtree otherwise.
type Snapshot struct {
	Path   string
	Value  any
	Exists bool
}

// Subscription is a live feed of Snapshots for one subtree. The channel
// carries the current state on attach and a fresh snapshot after every
// write that touches the subtree. Delivery coalesces: if the consumer lags,
// intermediate states are dropped and only the latest is kept, so the
// stream is monotonic but not exhaustive.
type Subscription struct {
	store *Store
	id    int
	segs  []string
	ch    chan Snapshot
}

// C returns the snapshot channel. It is closed by Close (or by the store
// closing).
func (sub *Subscription) C() <-chan Snapshot {
	return sub.ch
}

// Close detaches the subscription and closes its channel. Close is
// idempotent.
func (sub *Subscription) Close() {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()
	if _, ok := sub.store.subs[sub.id]; !ok {
		return
	}
	delete(sub.store.subs, sub.id)
	close(sub.ch)
}

// Subscribe opens a subscription to the subtree at path. The initial
// snapshot is queued before Subscribe returns, so the first receive always
// observes current state even if no write ever happens.
func (s *Store) Subscribe(path string) (*Subscription, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &Subscription{
		store: s,
		id:    s.nextID,
		segs:  segs,
		ch:    make(chan Snapshot, 1),
	}
	s.nextID++
	s.subs[sub.id] = sub
	sub.deliverLocked()
	return sub, nil
}

// notifyLocked pushes fresh snapshots to every subscription overlapping the
// written path. Caller must hold s.mu.
func (s *Store) notifyLocked(written []string) {
	for _, sub := range s.subs {
		if pathsOverlap(sub.segs, written) {
			sub.deliverLocked()
		}
	}
}

// deliverLocked replaces any undelivered snapshot with the current state of
// the subscribed subtree. Caller must hold the store's mutex.
func (sub *Subscription) deliverLocked() {
	node, ok := sub.store.lookup(sub.segs)
	snap := Snapshot{Path: strings.Join(sub.segs, "/"), Exists: ok}
	if ok {
		snap.Value = deepCopy(node)
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

// pathsOverlap reports whether one path is a prefix of the other. A write
// below the subscribed subtree changes it; a write above it replaces it.
func pathsOverlap(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
