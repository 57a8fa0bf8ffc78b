// Package docstoretest holds the behavioral checks every docstore backend
// must pass. Backend test files call Run with a factory for a fresh store.
package docstoretest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
)

// Factory returns an empty store. Collections used by the suite must start
// empty.
type Factory func(t *testing.T) docstore.Store

type doc struct {
	Name  string `bson:"name" json:"name"`
	Owner string `bson:"owner" json:"owner"`
	N     int    `bson:"n" json:"n"`
}

// Collection is the only collection the suite touches.
const Collection = "docstoretest_items"

func key(id string) docstore.Key {
	return docstore.Key{Collection: Collection, ID: id}
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Run executes the suite as subtests of t.
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newStore(t)) })
	t.Run("CreateExisting", func(t *testing.T) { testCreateExisting(t, newStore(t)) })
	t.Run("SetOverwrites", func(t *testing.T) { testSetOverwrites(t, newStore(t)) })
	t.Run("AbortDiscardsWrites", func(t *testing.T) { testAbortDiscardsWrites(t, newStore(t)) })
	t.Run("MultiWriteAtomic", func(t *testing.T) { testMultiWriteAtomic(t, newStore(t)) })
	t.Run("ReadAfterWrite", func(t *testing.T) { testReadAfterWrite(t, newStore(t)) })
	t.Run("Find", func(t *testing.T) { testFind(t, newStore(t)) })
	t.Run("ConcurrentCreateOneWins", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { testPing(t, newStore(t)) })
}

func testGetMissing(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	var d doc
	found, err := s.Get(ctx, key("nope"), &d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected missing document")
	}
}

func testCreateThenGet(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Create(key("a"), doc{Name: "a", Owner: "u1", N: 1})
	})
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}

	var got doc
	found, err := s.Get(ctx, key("a"), &got)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if got.Name != "a" || got.Owner != "u1" || got.N != 1 {
		t.Errorf("unexpected doc: %+v", got)
	}

	// Transactional read sees the same document.
	err = s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var in doc
		ok, err := tx.Get(ctx, key("a"), &in)
		if err != nil {
			return err
		}
		if !ok || in.Name != "a" {
			t.Errorf("tx.Get: found=%v doc=%+v", ok, in)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read-only transaction: %v", err)
	}
}

func testCreateExisting(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	create := func(n int) error {
		return s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			return tx.Create(key("dup"), doc{Name: "dup", N: n})
		})
	}
	if err := create(1); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := create(2); !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("second create: expected ErrAlreadyExists, got %v", err)
	}

	var got doc
	if _, err := s.Get(ctx, key("dup"), &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.N != 1 {
		t.Errorf("failed create must not overwrite: N = %d", got.N)
	}
}

func testSetOverwrites(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	for n := 1; n <= 2; n++ {
		n := n
		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			return tx.Set(key("s"), doc{Name: "s", N: n})
		})
		if err != nil {
			t.Fatalf("Set %d: %v", n, err)
		}
	}
	var got doc
	if _, err := s.Get(ctx, key("s"), &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.N != 2 {
		t.Errorf("N = %d, want 2", got.N)
	}
}

func testAbortDiscardsWrites(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	boom := errors.New("boom")
	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if err := tx.Create(key("aborted"), doc{Name: "aborted"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected function error, got %v", err)
	}

	var got doc
	found, err := s.Get(ctx, key("aborted"), &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("aborted transaction must not write")
	}
}

func testMultiWriteAtomic(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	// Seed "taken" so the second Create of the next transaction fails.
	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Create(key("taken"), doc{Name: "taken"})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if err := tx.Create(key("fresh"), doc{Name: "fresh"}); err != nil {
			return err
		}
		return tx.Create(key("taken"), doc{Name: "taken-again"})
	})
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	var got doc
	found, err := s.Get(ctx, key("fresh"), &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("partial commit: fresh was written although the transaction failed")
	}
}

func testReadAfterWrite(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if err := tx.Set(key("raw"), doc{Name: "raw"}); err != nil {
			return err
		}
		var d doc
		_, err := tx.Get(ctx, key("raw"), &d)
		return err
	})
	if !errors.Is(err, docstore.ErrReadAfterWrite) {
		t.Fatalf("expected ErrReadAfterWrite, got %v", err)
	}
}

func testFind(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, d := range []doc{
			{Name: "c", Owner: "u1"},
			{Name: "a", Owner: "u1"},
			{Name: "b", Owner: "u2"},
		} {
			if err := tx.Create(key(d.Name), d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	docs, err := s.Find(ctx, Collection, "owner", "u1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	want := []string{"a", "c"}
	for i, d := range docs {
		if d.ID() != want[i] {
			t.Errorf("doc %d: ID = %q, want %q", i, d.ID(), want[i])
		}
		var got doc
		if err := d.Decode(&got); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Name != want[i] {
			t.Errorf("doc %d: Name = %q, want %q", i, got.Name, want[i])
		}
	}

	none, err := s.Find(ctx, Collection, "owner", "nobody")
	if err != nil {
		t.Fatalf("Find (no match): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no docs, got %d", len(none))
	}
}

// testConcurrentCreate races N check-then-create transactions on one key.
// Exactly one may observe "absent" and commit.
func testConcurrentCreate(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()

	const n = 8
	errTaken := errors.New("taken")
	var wins, taken atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
				var d doc
				found, err := tx.Get(ctx, key("race"), &d)
				if err != nil {
					return err
				}
				if found {
					return errTaken
				}
				return tx.Create(key("race"), doc{Name: "race", N: i})
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, errTaken), errors.Is(err, docstore.ErrAlreadyExists), errors.Is(err, docstore.ErrConflict):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one winner, got %d", wins.Load())
	}
	if wins.Load()+taken.Load() != n {
		t.Errorf("accounted for %d of %d transactions", wins.Load()+taken.Load(), n)
	}
}

func testPing(t *testing.T, s docstore.Store) {
	ctx, cancel := testContext()
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
