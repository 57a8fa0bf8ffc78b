// Package memstore is an in-process docstore.Store.
//
// Transactions use optimistic concurrency: every document carries a version,
// each transaction records the versions it read, and commit re-validates
// that read set under the store mutex before applying any write. A
// transaction whose read set went stale is re-run from the top. This gives
// serializable behavior without holding the lock while the transaction body
// runs.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultMaxAttempts bounds how often a conflicting transaction is re-run.
const DefaultMaxAttempts = 10

var errClosed = errors.New("memstore: store is closed")

type entry struct {
	version uint64
	body    []byte
}

// Store keeps BSON-encoded documents in memory.
type Store struct {
	mu          sync.Mutex
	docs        map[docstore.Key]entry
	clock       uint64
	closed      bool
	maxAttempts int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		docs:        make(map[docstore.Key]entry),
		maxAttempts: DefaultMaxAttempts,
	}
}

// SetMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func (s *Store) SetMaxAttempts(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.maxAttempts = n
	s.mu.Unlock()
}

// Len returns the number of stored documents (all collections).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type tx struct {
	docstore.Buffer
	s     *Store
	reads map[docstore.Key]uint64
}

func (t *tx) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	if err := t.CheckRead(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.s.mu.Lock()
	if t.s.closed {
		t.s.mu.Unlock()
		return false, errClosed
	}
	e, ok := t.s.docs[key]
	t.s.mu.Unlock()

	if prev, seen := t.reads[key]; seen && prev != e.version {
		// Two reads of the same key disagree: the snapshot is already stale.
		return false, docstore.ErrConflict
	}
	t.reads[key] = e.version
	if !ok {
		return false, nil
	}
	if err := bson.Unmarshal(e.body, out); err != nil {
		return false, fmt.Errorf("memstore: decode %s: %w", key, err)
	}
	return true, nil
}

// RunTransaction implements docstore.Store.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	s.mu.Lock()
	attempts := s.maxAttempts
	s.mu.Unlock()

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := &tx{s: s, reads: make(map[docstore.Key]uint64)}
		err := fn(ctx, t)
		if errors.Is(err, docstore.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}
		err = s.commit(t)
		if errors.Is(err, docstore.ErrConflict) {
			continue
		}
		return err
	}
	return docstore.ErrConflict
}

type staged struct {
	key  docstore.Key
	op   docstore.Op
	body []byte
}

func (s *Store) commit(t *tx) error {
	writes := t.Writes()
	if len(writes) == 0 && len(t.reads) == 0 {
		return nil
	}

	// Encode outside the lock.
	pending := make([]staged, 0, len(writes))
	for _, w := range writes {
		body, err := bson.Marshal(w.Doc)
		if err != nil {
			return fmt.Errorf("memstore: encode %s: %w", w.Key, err)
		}
		pending = append(pending, staged{key: w.Key, op: w.Op, body: body})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	for k, v := range t.reads {
		if s.docs[k].version != v {
			return docstore.ErrConflict
		}
	}

	// Validate every Create against current state plus earlier writes in
	// this transaction before touching the map.
	present := make(map[docstore.Key]bool, len(pending))
	for _, p := range pending {
		exists, seen := present[p.key]
		if !seen {
			_, exists = s.docs[p.key]
		}
		if p.op == docstore.OpCreate && exists {
			return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, p.key)
		}
		present[p.key] = true
	}

	for _, p := range pending {
		s.clock++
		s.docs[p.key] = entry{version: s.clock, body: p.body}
	}
	return nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, errClosed
	}
	e, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := bson.Unmarshal(e.body, out); err != nil {
		return false, fmt.Errorf("memstore: decode %s: %w", key, err)
	}
	return true, nil
}

type document struct {
	id   string
	body []byte
}

func (d document) ID() string { return d.id }

func (d document) Decode(out any) error {
	return bson.Unmarshal(d.body, out)
}

// Find implements docstore.Store.
func (s *Store) Find(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errClosed
	}
	var candidates []document
	for k, e := range s.docs {
		if k.Collection == collection {
			candidates = append(candidates, document{id: k.ID, body: e.body})
		}
	}
	s.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })

	var out []docstore.Document
	for _, c := range candidates {
		v, err := bson.Raw(c.body).LookupErr(field)
		if err != nil {
			continue
		}
		if str, ok := v.StringValueOK(); ok && str == value {
			out = append(out, c)
		}
	}
	return out, nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	return ctx.Err()
}

// Close implements docstore.Store. A closed Store rejects every call.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
