// Package docstore implements a key-path document store with subtree
// subscriptions, the storage primitive the rest of the tracker is built on.
//
// Paths are slash-separated: the first segment names a collection
// ("weddings", "users", "invites"), the second a record key, and any further
// segments address fields inside the record. Writes are serialized by a
// single mutex, so a client's writes apply in issuance order and concurrent
// writers resolve last-write-wins. Records persist to SQLite as JSON, one
// row per (collection, key); the in-memory tree is authoritative and is
// loaded once at startup.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

var (
	// ErrBadPath is returned for empty paths or paths with empty segments.
	ErrBadPath = errors.New("docstore: invalid path")

	// ErrNotMergeable is returned by Update when the target is not an
	// object.
	ErrNotMergeable = errors.New("docstore: target is not an object")
)

// Store is a document store backed by an in-memory tree with SQLite
// persistence.
type Store struct {
	mu sync.Mutex
	db *sql.DB

	// tree is collection -> key -> decoded JSON value.
	tree map[string]map[string]any

	subs   map[int]*Subscription
	nextID int
}

// Open creates a Store at the given database path, creating parent
// directories, running migrations, and loading all persisted records.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Store{
		db:   db,
		tree: make(map[string]map[string]any),
		subs: make(map[int]*Subscription),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close tears down every open subscription and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	for _, sub := range s.subs {
		close(sub.ch)
	}
	s.subs = make(map[int]*Subscription)
	s.mu.Unlock()
	return s.db.Close()
}

// load reads every persisted record into the in-memory tree.
func (s *Store) load() error {
	rows, err := s.db.Query("SELECT collection, key, body FROM documents")
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var collection, key, body string
		if err := rows.Scan(&collection, &key, &body); err != nil {
			return fmt.Errorf("failed to scan document: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return fmt.Errorf("failed to decode document %s/%s: %w", collection, key, err)
		}
		if s.tree[collection] == nil {
			s.tree[collection] = make(map[string]any)
		}
		s.tree[collection][key] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate documents: %w", err)
	}
	return nil
}

// splitPath validates and splits a slash-separated path.
func splitPath(path string) ([]string, error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	for _, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
	}
	return segs, nil
}

// normalize round-trips a value through JSON so the tree only ever holds
// decoded JSON types, regardless of what callers pass in.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: value not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("docstore: value not serializable: %w", err)
	}
	return out, nil
}

// deepCopy clones a decoded JSON value so snapshots and reads never alias
// the live tree.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// lookup walks the tree to the node at segs. Caller must hold s.mu.
func (s *Store) lookup(segs []string) (any, bool) {
	col, ok := s.tree[segs[0]]
	if !ok {
		return nil, false
	}
	if len(segs) == 1 {
		// Whole collection as an object.
		out := make(map[string]any, len(col))
		for k, v := range col {
			out[k] = v
		}
		return out, true
	}
	node, ok := col[segs[1]]
	if !ok {
		return nil, false
	}
	for _, seg := range segs[2:] {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// Get reads the subtree at path. The second return is false if no value
// exists there.
func (s *Store) Get(ctx context.Context, path string, out any) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	node, ok := s.lookup(segs)
	if ok {
		node = deepCopy(node)
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return false, fmt.Errorf("docstore: failed to encode value at %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("docstore: failed to decode value at %s: %w", path, err)
	}
	return true, nil
}

// Set overwrites the subtree at path with v.
func (s *Store) Set(ctx context.Context, path string, v any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	val, err := normalize(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(segs, val)
	if err := s.persistLocked(ctx, segs); err != nil {
		return err
	}
	s.notifyLocked(segs)
	return nil
}

// SetIfAbsent writes v at path only if nothing exists there, and reports
// whether the write happened. This is the store's conditional-write
// primitive; first-login bootstrap uses it so a concurrently accepted
// invite is never clobbered.
func (s *Store) SetIfAbsent(ctx context.Context, path string, v any) (bool, error) {
	segs, err := splitPath(path)
	if err != nil {
		return false, err
	}
	val, err := normalize(v)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lookup(segs); exists {
		return false, nil
	}
	s.setLocked(segs, val)
	if err := s.persistLocked(ctx, segs); err != nil {
		return false, err
	}
	s.notifyLocked(segs)
	return true, nil
}

// Update shallow-merges fields into the object at path, creating it if
// absent.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	val, err := normalize(fields)
	if err != nil {
		return err
	}
	merged := val.(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mergeLocked(segs, merged); err != nil {
		return err
	}
	if err := s.persistLocked(ctx, segs); err != nil {
		return err
	}
	s.notifyLocked(segs)
	return nil
}

// Push appends v under path with a generated key and returns the key.
func (s *Store) Push(ctx context.Context, path string, v any) (string, error) {
	key := uuid.New().String()
	if err := s.Set(ctx, path+"/"+key, v); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes the subtree at path. Deleting an absent path is not an
// error.
func (s *Store) Delete(ctx context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deleteLocked(segs) {
		return nil
	}
	if err := s.persistLocked(ctx, segs); err != nil {
		return err
	}
	s.notifyLocked(segs)
	return nil
}

// MultiUpdate applies a set of path writes as one atomic step: all of them
// become visible in the same snapshot. A nil value deletes the path.
// Category cascade-deletes use this so a wedding never observes a state
// where the category is gone but its expenses remain.
func (s *Store) MultiUpdate(ctx context.Context, updates map[string]any) error {
	type op struct {
		segs []string
		val  any
		del  bool
	}
	ops := make([]op, 0, len(updates))
	for path, v := range updates {
		segs, err := splitPath(path)
		if err != nil {
			return err
		}
		if v == nil {
			ops = append(ops, op{segs: segs, del: true})
			continue
		}
		val, err := normalize(v)
		if err != nil {
			return err
		}
		ops = append(ops, op{segs: segs, val: val})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make([][]string, 0, len(ops))
	for _, o := range ops {
		if o.del {
			s.deleteLocked(o.segs)
		} else {
			s.setLocked(o.segs, o.val)
		}
		touched = append(touched, o.segs)
	}
	for _, segs := range touched {
		if err := s.persistLocked(ctx, segs); err != nil {
			return err
		}
	}
	for _, segs := range touched {
		s.notifyLocked(segs)
	}
	return nil
}

// setLocked writes val at segs, creating intermediate objects. Caller must
// hold s.mu.
func (s *Store) setLocked(segs []string, val any) {
	if s.tree[segs[0]] == nil {
		s.tree[segs[0]] = make(map[string]any)
	}
	col := s.tree[segs[0]]
	if len(segs) == 1 {
		// Replacing a whole collection: val must be an object.
		obj, _ := val.(map[string]any)
		s.tree[segs[0]] = obj
		if s.tree[segs[0]] == nil {
			s.tree[segs[0]] = make(map[string]any)
		}
		return
	}
	if len(segs) == 2 {
		col[segs[1]] = val
		return
	}
	node, ok := col[segs[1]].(map[string]any)
	if !ok {
		node = make(map[string]any)
		col[segs[1]] = node
	}
	for _, seg := range segs[2 : len(segs)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
	node[segs[len(segs)-1]] = val
}

// mergeLocked shallow-merges fields into the object at segs. Caller must
// hold s.mu.
func (s *Store) mergeLocked(segs []string, fields map[string]any) error {
	node, ok := s.lookup(segs)
	if !ok {
		s.setLocked(segs, fields)
		return nil
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMergeable, strings.Join(segs, "/"))
	}
	for k, v := range fields {
		obj[k] = v
	}
	return nil
}

// deleteLocked removes the subtree at segs and reports whether anything was
// removed. Caller must hold s.mu.
func (s *Store) deleteLocked(segs []string) bool {
	col, ok := s.tree[segs[0]]
	if !ok {
		return false
	}
	if len(segs) == 1 {
		delete(s.tree, segs[0])
		return true
	}
	if len(segs) == 2 {
		if _, ok := col[segs[1]]; !ok {
			return false
		}
		delete(col, segs[1])
		return true
	}
	node, ok := col[segs[1]].(map[string]any)
	if !ok {
		return false
	}
	for _, seg := range segs[2 : len(segs)-1] {
		node, ok = node[seg].(map[string]any)
		if !ok {
			return false
		}
	}
	last := segs[len(segs)-1]
	if _, ok := node[last]; !ok {
		return false
	}
	delete(node, last)
	return true
}

// persistLocked writes the record containing segs back to SQLite. Caller
// must hold s.mu.
func (s *Store) persistLocked(ctx context.Context, segs []string) error {
	collection := segs[0]
	if len(segs) == 1 {
		// A whole collection changed: rewrite all of its rows.
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM documents WHERE collection = ?", collection,
		); err != nil {
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}
		for key := range s.tree[collection] {
			if err := s.persistRecordLocked(ctx, collection, key); err != nil {
				return err
			}
		}
		return nil
	}
	return s.persistRecordLocked(ctx, collection, segs[1])
}

func (s *Store) persistRecordLocked(ctx context.Context, collection, key string) error {
	col := s.tree[collection]
	val, ok := col[key]
	if !ok {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM documents WHERE collection = ? AND key = ?",
			collection, key,
		); err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", collection, key, err)
		}
		return nil
	}
	body, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, key, body) VALUES (?, ?, ?)
		 ON CONFLICT(collection, key) DO UPDATE SET body = excluded.body`,
		collection, key, string(body),
	); err != nil {
		return fmt.Errorf("failed to persist document %s/%s: %w", collection, key, err)
	}
	return nil
}
