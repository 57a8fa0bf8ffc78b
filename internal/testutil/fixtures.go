package testutil

import (
	"context"
	"testing"

	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	userstore "github.com/dalemusser/reelhub/internal/app/store/users"
	"github.com/dalemusser/reelhub/internal/app/system/authutil"
	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/memstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	ds    docstore.Store
	users *userstore.Store
	t     *testing.T
}

// NewFixtures creates a new Fixtures instance backed by ds.
func NewFixtures(t *testing.T, ds docstore.Store) *Fixtures {
	t.Helper()
	return &Fixtures{ds: ds, users: userstore.New(ds), t: t}
}

// NewMemFixtures is NewFixtures over a fresh in-memory store.
func NewMemFixtures(t *testing.T) *Fixtures {
	t.Helper()
	return NewFixtures(t, memstore.New())
}

// Store returns the underlying document store for direct access in tests.
func (f *Fixtures) Store() docstore.Store {
	return f.ds
}

// Users returns a user store over the same document store.
func (f *Fixtures) Users() *userstore.Store {
	return f.users
}

// CreateUser stores a user profile.
func (f *Fixtures) CreateUser(ctx context.Context, id, displayName string) {
	f.t.Helper()
	if err := f.users.Upsert(ctx, id, displayName, "https://avatars.test/"+id+".png"); err != nil {
		f.t.Fatalf("failed to create test user %s: %v", id, err)
	}
}

// GroupStore returns a groupstore over the fixture store using the
// cheapest bcrypt cost.
func (f *Fixtures) GroupStore() *groupstore.Store {
	f.t.Helper()
	h, err := authutil.NewHasher(bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to create hasher: %v", err)
	}
	return groupstore.New(f.ds, f.users, h, zap.NewNop())
}

// CreateGroup creates a group owned by creatorID, creating the user first.
// Returns the normalized group name.
func (f *Fixtures) CreateGroup(ctx context.Context, creatorID, name, password string) string {
	f.t.Helper()
	f.CreateUser(ctx, creatorID, "Creator "+creatorID)
	id, err := f.GroupStore().CreateGroup(ctx, creatorID, name, password)
	if err != nil {
		f.t.Fatalf("failed to create test group %q: %v", name, err)
	}
	return id
}
