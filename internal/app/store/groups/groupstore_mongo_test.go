package groupstore_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	userstore "github.com/dalemusser/reelhub/internal/app/store/users"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/mongostore"
	"github.com/dalemusser/reelhub/internal/app/system/indexes"
	"github.com/dalemusser/reelhub/internal/testutil"
	"go.uber.org/zap"
)

func TestMongo_ConcurrentCreateAndIdempotentJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ds := mongostore.New(db.Client(), db, zap.NewNop())
	users := userstore.New(ds)
	store := groupstore.New(ds, users, mustHasher(t), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	const n = 6
	for i := 0; i < n; i++ {
		if err := users.Upsert(ctx, fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i), ""); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.CreateGroup(ctx, fmt.Sprintf("u%d", i), "Mongo Race", "password1")
		}()
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, groupstore.ErrGroupAlreadyExists):
		default:
			t.Errorf("caller %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful create, got %d", wins)
	}

	for attempt := 0; attempt < 2; attempt++ {
		for i := 0; i < n; i++ {
			if _, err := store.JoinGroup(ctx, fmt.Sprintf("u%d", i), "mongo race", "password1"); err != nil {
				t.Fatalf("JoinGroup u%d (attempt %d): %v", i, attempt, err)
			}
		}
	}

	members, err := store.ListMembers(ctx, "mongo race")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != n {
		t.Errorf("expected %d members, got %d", n, len(members))
	}
	for i := 0; i < n; i++ {
		ugs, err := store.ListUserGroups(ctx, fmt.Sprintf("u%d", i))
		if err != nil {
			t.Fatalf("ListUserGroups: %v", err)
		}
		if len(ugs) != 1 {
			t.Errorf("u%d: expected 1 group entry, got %d", i, len(ugs))
		}
	}
}
