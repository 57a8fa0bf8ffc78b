package groupstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	groupstore "github.com/dalemusser/reelhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/reelhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/reelhub/internal/app/store/users"
	"github.com/dalemusser/reelhub/internal/app/system/authutil"
	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/reelhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type env struct {
	ds     *memstore.Store
	users  *userstore.Store
	store  *groupstore.Store
	hasher *authutil.Hasher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ds := memstore.New()
	return newEnvWith(t, ds, ds)
}

// newEnvWith lets a test wrap the docstore seen by the group store while
// seeding and inspecting through the underlying memstore.
func newEnvWith(t *testing.T, mem *memstore.Store, ds docstore.Store) *env {
	t.Helper()
	hasher, err := authutil.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	users := userstore.New(mem)
	store := groupstore.New(ds, users, hasher, zap.NewNop(),
		groupstore.WithClock(func() time.Time { return fixedNow }))
	return &env{ds: mem, users: users, store: store, hasher: hasher}
}

func (e *env) addUser(t *testing.T, id, name string) {
	t.Helper()
	if err := e.users.Upsert(context.Background(), id, name, "https://img.example/"+id+".png"); err != nil {
		t.Fatalf("Upsert %s: %v", id, err)
	}
}

func TestCreateGroup_NormalizesAndStores(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	ctx := context.Background()

	id, err := e.store.CreateGroup(ctx, "alice", "  Study Group  ", "hunter22")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if id != "study group" {
		t.Errorf("expected id %q, got %q", "study group", id)
	}

	var g models.Group
	found, err := e.ds.Get(ctx, groupstore.Key("study group"), &g)
	if err != nil || !found {
		t.Fatalf("group not stored under normalized key: found=%v err=%v", found, err)
	}
	if g.Name != "study group" {
		t.Errorf("Name = %q", g.Name)
	}
	if g.DisplayName != "Study Group" {
		t.Errorf("DisplayName = %q, want trimmed original", g.DisplayName)
	}
	if g.PasswordHash == "" || g.PasswordHash == "hunter22" {
		t.Errorf("password must be stored hashed, got %q", g.PasswordHash)
	}
	if ok, err := e.hasher.Matches(g.PasswordHash, "hunter22"); err != nil || !ok {
		t.Error("stored hash does not verify the original password")
	}
	if !g.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", g.CreatedAt, fixedNow)
	}
	if g.CreatedBy.UserID != "alice" || g.CreatedBy.DisplayName != "Alice" {
		t.Errorf("unexpected creator summary %+v", g.CreatedBy)
	}

	var m models.Membership
	if found, _ := e.ds.Get(ctx, membershipstore.MembershipKey("study group", "alice"), &m); !found {
		t.Fatal("creator membership missing")
	}
	if m.Role != models.RoleMember {
		t.Errorf("creator role = %q, want %q", m.Role, models.RoleMember)
	}
	var ug models.UserGroup
	if found, _ := e.ds.Get(ctx, membershipstore.UserGroupKey("alice", "study group"), &ug); !found {
		t.Fatal("creator user_groups entry missing")
	}
	if ug.Role != m.Role || !ug.JoinedAt.Equal(m.JoinedAt) {
		t.Errorf("user_groups entry %+v does not mirror membership %+v", ug, m)
	}

	// users + group + membership + index
	if e.ds.Len() != 4 {
		t.Errorf("expected 4 documents, got %d", e.ds.Len())
	}
}

func TestCreateGroup_Validation(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	ctx := context.Background()

	tests := []struct {
		name      string
		requester string
		group     string
		password  string
		want      error
	}{
		{"empty name", "alice", "", "password1", groupstore.ErrMissingFields},
		{"blank name", "alice", "   ", "password1", groupstore.ErrMissingFields},
		{"empty password", "alice", "g", "", groupstore.ErrMissingFields},
		{"empty requester", "", "g", "password1", groupstore.ErrMissingFields},
		{"seven characters", "alice", "g", "1234567", groupstore.ErrPasswordTooShort},
		{"seven runes", "alice", "g", "ääääääa", groupstore.ErrPasswordTooShort},
		{"over bcrypt limit", "alice", "g", strings.Repeat("x", 73), groupstore.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.store.CreateGroup(ctx, tt.requester, tt.group, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if k := groupstore.KindOf(err); k != groupstore.KindValidation {
				t.Errorf("KindOf = %v, want validation", k)
			}
		})
	}

	if e.ds.Len() != 1 {
		t.Errorf("validation failures must not write; %d documents stored", e.ds.Len())
	}
}

func TestCreateGroup_PasswordLengthBoundary(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "seven", "1234567"); !errors.Is(err, groupstore.ErrPasswordTooShort) {
		t.Errorf("7 characters: expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := e.store.CreateGroup(ctx, "alice", "eight", "12345678"); err != nil {
		t.Errorf("8 characters: expected success, got %v", err)
	}
}

func TestCreateGroup_UserNotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.store.CreateGroup(context.Background(), "ghost", "g", "password1")
	if !errors.Is(err, groupstore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if groupstore.KindOf(err) != groupstore.KindNotFound {
		t.Errorf("KindOf = %v, want not_found", groupstore.KindOf(err))
	}
	if e.ds.Len() != 0 {
		t.Errorf("expected no writes, got %d documents", e.ds.Len())
	}
}

func TestCreateGroup_AlreadyExists(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "Chess Club", "password1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := e.store.CreateGroup(ctx, "bob", "  CHESS club ", "different1")
	if !errors.Is(err, groupstore.ErrGroupAlreadyExists) {
		t.Fatalf("expected ErrGroupAlreadyExists, got %v", err)
	}
	if groupstore.KindOf(err) != groupstore.KindConflict {
		t.Errorf("KindOf = %v, want conflict", groupstore.KindOf(err))
	}

	// The original group and its password are untouched; bob is not a member.
	if _, err := e.store.JoinGroup(ctx, "bob", "chess club", "different1"); !errors.Is(err, groupstore.ErrIncorrectPassword) {
		t.Errorf("second creator's password must not have replaced the first: %v", err)
	}
	ugs, _ := e.store.ListUserGroups(ctx, "bob")
	if len(ugs) != 0 {
		t.Errorf("failed create must not add bob to any group: %+v", ugs)
	}
}

func TestCreateGroup_ConcurrentCreatesOneWins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 16
	for i := 0; i < n; i++ {
		e.addUser(t, fmt.Sprintf("u%02d", i), fmt.Sprintf("User %d", i))
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = e.store.CreateGroup(ctx, fmt.Sprintf("u%02d", i), "Race", "password1")
		}()
	}
	close(start)
	wg.Wait()

	wins := 0
	winner := ""
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winner = fmt.Sprintf("u%02d", i)
		case errors.Is(err, groupstore.ErrGroupAlreadyExists):
		default:
			t.Errorf("caller %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful create, got %d", wins)
	}

	members, err := e.store.ListMembers(ctx, "race")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].UserID != winner {
		t.Errorf("expected only the winner %s as member, got %+v", winner, members)
	}
	// n users + group + membership + index
	if e.ds.Len() != n+3 {
		t.Errorf("expected %d documents, got %d", n+3, e.ds.Len())
	}
}

func TestJoinGroup(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "Study Group", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	id, err := e.store.JoinGroup(ctx, "bob", "  STUDY GROUP", "password1")
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if id != "study group" {
		t.Errorf("expected id %q, got %q", "study group", id)
	}

	members, err := e.store.ListMembers(ctx, "study group")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 || members[0].UserID != "alice" || members[1].UserID != "bob" {
		t.Fatalf("unexpected members %+v", members)
	}
	if members[1].Role != models.RoleMember || members[1].DisplayName != "Bob" {
		t.Errorf("unexpected joiner membership %+v", members[1])
	}

	ugs, err := e.store.ListUserGroups(ctx, "bob")
	if err != nil {
		t.Fatalf("ListUserGroups: %v", err)
	}
	if len(ugs) != 1 || ugs[0].Group != "study group" {
		t.Errorf("unexpected user groups %+v", ugs)
	}
}

func TestJoinGroup_Idempotent(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "g", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if _, err := e.store.JoinGroup(ctx, "bob", "g", "password1"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	var before models.Membership
	e.ds.Get(ctx, membershipstore.MembershipKey("g", "bob"), &before)
	n := e.ds.Len()

	// A later join must not overwrite the original JoinedAt.
	later := groupstore.New(e.ds, e.users, mustHasher(t), zap.NewNop(),
		groupstore.WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
	if _, err := later.JoinGroup(ctx, "bob", "g", "password1"); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if e.ds.Len() != n {
		t.Errorf("second join added documents: %d -> %d", n, e.ds.Len())
	}
	var after models.Membership
	e.ds.Get(ctx, membershipstore.MembershipKey("g", "bob"), &after)
	if !after.JoinedAt.Equal(before.JoinedAt) {
		t.Errorf("membership overwritten: JoinedAt %v -> %v", before.JoinedAt, after.JoinedAt)
	}

	// The creator joining their own group is also a no-op.
	if _, err := e.store.JoinGroup(ctx, "alice", "g", "password1"); err != nil {
		t.Fatalf("creator join: %v", err)
	}
	if e.ds.Len() != n {
		t.Errorf("creator join added documents: %d -> %d", n, e.ds.Len())
	}
}

func TestJoinGroup_Errors(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "g", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	tests := []struct {
		name      string
		requester string
		group     string
		password  string
		want      error
		kind      groupstore.Kind
	}{
		{"missing name", "bob", " ", "password1", groupstore.ErrMissingFields, groupstore.KindValidation},
		{"missing password", "bob", "g", "", groupstore.ErrMissingFields, groupstore.KindValidation},
		{"unknown group with correct password", "bob", "nope", "password1", groupstore.ErrGroupNotFound, groupstore.KindNotFound},
		{"unknown group and unknown user", "ghost", "nope", "password1", groupstore.ErrGroupNotFound, groupstore.KindNotFound},
		{"unknown user", "ghost", "g", "password1", groupstore.ErrUserNotFound, groupstore.KindNotFound},
		{"unknown user with wrong password", "ghost", "g", "wrong-password", groupstore.ErrUserNotFound, groupstore.KindNotFound},
		{"wrong password", "bob", "g", "password2", groupstore.ErrIncorrectPassword, groupstore.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := e.ds.Len()
			_, err := e.store.JoinGroup(ctx, tt.requester, tt.group, tt.password)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if k := groupstore.KindOf(err); k != tt.kind {
				t.Errorf("KindOf = %v, want %v", k, tt.kind)
			}
			if e.ds.Len() != n {
				t.Errorf("failed join wrote documents: %d -> %d", n, e.ds.Len())
			}
		})
	}
}

func TestJoinGroup_SlashedNamesStayDistinct(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "x", "X")
	e.addUser(t, "b/x", "BX")
	ctx := context.Background()

	for _, g := range []string{"a/b", "a"} {
		if _, err := e.store.CreateGroup(ctx, "x", g, "password1"); err != nil {
			t.Fatalf("CreateGroup %q: %v", g, err)
		}
	}
	res, err := e.store.Join(ctx, "b/x", "a", "password1")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !res.Added {
		t.Error("b/x was not a member of a, so the join must add a membership")
	}

	members, err := e.store.ListMembers(ctx, "a")
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 || members[0].UserID != "b/x" || members[1].UserID != "x" {
		t.Errorf("members of a: %+v", members)
	}

	joined, err := e.store.ListUserGroups(ctx, "b/x")
	if err != nil {
		t.Fatalf("ListUserGroups b/x: %v", err)
	}
	if len(joined) != 1 || joined[0].Group != "a" {
		t.Errorf("groups of b/x: %+v", joined)
	}
	created, err := e.store.ListUserGroups(ctx, "x")
	if err != nil {
		t.Fatalf("ListUserGroups x: %v", err)
	}
	if len(created) != 2 || created[0].Group != "a" || created[1].Group != "a/b" {
		t.Errorf("groups of x: %+v", created)
	}
}

func TestJoin_ReportsAdded(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "g", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	tests := []struct {
		name      string
		requester string
		wantAdded bool
	}{
		{"new member", "bob", true},
		{"repeat join", "bob", false},
		{"creator", "alice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.store.Join(ctx, tt.requester, "G", "password1")
			if err != nil {
				t.Fatalf("Join: %v", err)
			}
			if res.Group != "g" {
				t.Errorf("Group = %q, want g", res.Group)
			}
			if res.Added != tt.wantAdded {
				t.Errorf("Added = %v, want %v", res.Added, tt.wantAdded)
			}
		})
	}
}

func TestJoinGroup_OverlongPasswordRejected(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	password := strings.Repeat("k", authutil.MaxPasswordBytes)
	if _, err := e.store.CreateGroup(ctx, "alice", "g", password); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	n := e.ds.Len()
	_, err := e.store.JoinGroup(ctx, "bob", "g", password+"extra")
	if !errors.Is(err, groupstore.ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if e.ds.Len() != n {
		t.Errorf("rejected join wrote documents: %d -> %d", n, e.ds.Len())
	}
	if _, err := e.store.JoinGroup(ctx, "bob", "g", password); err != nil {
		t.Errorf("exact password: %v", err)
	}
}

func TestMemberOnlyReads(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	e.addUser(t, "eve", "Eve")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "Private", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	tests := []struct {
		name      string
		requester string
		group     string
		want      error
	}{
		{"member", "alice", "PRIVATE", nil},
		{"non-member", "eve", "private", groupstore.ErrNotMember},
		{"missing group", "eve", "nope", groupstore.ErrGroupNotFound},
		{"no requester", " ", "private", groupstore.ErrMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := e.store.GroupFor(ctx, tt.requester, tt.group)
			if !errors.Is(err, tt.want) {
				t.Fatalf("GroupFor: expected %v, got %v", tt.want, err)
			}
			if err == nil && g.Name != "private" {
				t.Errorf("GroupFor name = %q", g.Name)
			}

			ms, err := e.store.MembersFor(ctx, tt.requester, tt.group)
			if !errors.Is(err, tt.want) {
				t.Fatalf("MembersFor: expected %v, got %v", tt.want, err)
			}
			if err == nil && (len(ms) != 1 || ms[0].UserID != "alice") {
				t.Errorf("MembersFor: %+v", ms)
			}
			if tt.want == groupstore.ErrNotMember && groupstore.KindOf(err) != groupstore.KindForbidden {
				t.Errorf("KindOf = %v, want forbidden", groupstore.KindOf(err))
			}
		})
	}
}

func TestJoinGroup_CorruptedGroupRecord(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "bob", "Bob")
	ctx := context.Background()

	seed := func(name, hash string) {
		err := e.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			return tx.Create(groupstore.Key(name), models.Group{Name: name, PasswordHash: hash, CreatedAt: fixedNow})
		})
		if err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	seed("nohash", "")
	seed("badhash", "not-a-bcrypt-hash")

	for _, name := range []string{"nohash", "badhash"} {
		_, err := e.store.JoinGroup(ctx, "bob", name, "password1")
		if !errors.Is(err, groupstore.ErrCorruptedGroupRecord) {
			t.Errorf("%s: expected ErrCorruptedGroupRecord, got %v", name, err)
		}
		if groupstore.KindOf(err) != groupstore.KindIntegrity {
			t.Errorf("%s: KindOf = %v, want integrity", name, groupstore.KindOf(err))
		}
	}
	if ugs, _ := e.store.ListUserGroups(ctx, "bob"); len(ugs) != 0 {
		t.Errorf("corrupted groups must not gain members: %+v", ugs)
	}
}

func TestGetGroup_NeverReturnsHash(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "alice", "Alice")
	ctx := context.Background()

	if _, err := e.store.CreateGroup(ctx, "alice", "Study Group", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	sum, err := e.store.GetGroup(ctx, "study group")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if sum.Name != "study group" || sum.DisplayName != "Study Group" {
		t.Errorf("unexpected summary %+v", sum)
	}
	b, _ := json.Marshal(sum)
	if strings.Contains(string(b), "password") || strings.Contains(string(b), "$2") {
		t.Errorf("summary leaks password material: %s", b)
	}

	if _, err := e.store.GetGroup(ctx, "missing"); !errors.Is(err, groupstore.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
	if _, err := e.store.ListMembers(ctx, "missing"); !errors.Is(err, groupstore.ErrGroupNotFound) {
		t.Errorf("ListMembers: expected ErrGroupNotFound, got %v", err)
	}
	if _, err := e.store.ListUserGroups(ctx, " "); !errors.Is(err, groupstore.ErrMissingFields) {
		t.Errorf("ListUserGroups: expected ErrMissingFields, got %v", err)
	}
}

// failingStore wraps a memstore and fails writes to one collection at
// commit time.
type failingStore struct {
	*memstore.Store
	failCollection string
	txErr          error
}

type failingTx struct {
	docstore.Tx
	fail string
}

var errInjected = errors.New("injected write failure")

func (t failingTx) Create(key docstore.Key, doc any) error {
	if key.Collection == t.fail {
		return errInjected
	}
	return t.Tx.Create(key, doc)
}

func (s *failingStore) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	if s.txErr != nil {
		return s.txErr
	}
	return s.Store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return fn(ctx, failingTx{Tx: tx, fail: s.failCollection})
	})
}

func TestCreateGroup_NoPartialWrites(t *testing.T) {
	for _, coll := range []string{groupstore.Collection, membershipstore.Collection, membershipstore.UserGroupsCollection} {
		t.Run(coll, func(t *testing.T) {
			mem := memstore.New()
			e := newEnvWith(t, mem, &failingStore{Store: mem, failCollection: coll})
			e.addUser(t, "alice", "Alice")

			_, err := e.store.CreateGroup(context.Background(), "alice", "g", "password1")
			if !errors.Is(err, groupstore.ErrTransientStore) {
				t.Fatalf("expected ErrTransientStore, got %v", err)
			}
			if !errors.Is(err, errInjected) {
				t.Errorf("cause should stay wrapped: %v", err)
			}
			if mem.Len() != 1 {
				t.Errorf("expected only the user document, got %d documents", mem.Len())
			}
		})
	}
}

func TestJoinGroup_NoPartialWrites(t *testing.T) {
	mem := memstore.New()
	setup := newEnvWith(t, mem, mem)
	setup.addUser(t, "alice", "Alice")
	setup.addUser(t, "bob", "Bob")
	if _, err := setup.store.CreateGroup(context.Background(), "alice", "g", "password1"); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	n := mem.Len()

	failing := newEnvWith(t, mem, &failingStore{Store: mem, failCollection: membershipstore.UserGroupsCollection})
	_, err := failing.store.JoinGroup(context.Background(), "bob", "g", "password1")
	if groupstore.KindOf(err) != groupstore.KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}
	if mem.Len() != n {
		t.Errorf("membership written without its index: %d -> %d documents", n, mem.Len())
	}
}

func TestTransientStoreErrors(t *testing.T) {
	mem := memstore.New()
	e := newEnvWith(t, mem, &failingStore{Store: mem, txErr: docstore.ErrConflict})
	e.addUser(t, "alice", "Alice")

	_, err := e.store.CreateGroup(context.Background(), "alice", "g", "password1")
	if groupstore.KindOf(err) != groupstore.KindTransient {
		t.Errorf("conflict exhaustion: expected transient, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plain := newEnvWith(t, mem, mem)
	_, err = plain.store.JoinGroup(ctx, "alice", "g", "password1")
	if groupstore.KindOf(err) != groupstore.KindTransient {
		t.Errorf("canceled context: expected transient, got %v", err)
	}
}

type brokenLookup struct{}

func (brokenLookup) GetProfile(context.Context, string) (models.UserProfile, error) {
	return models.UserProfile{}, errors.New("profile service down")
}

func TestCreateGroup_LookupFailureIsTransient(t *testing.T) {
	store := groupstore.New(memstore.New(), brokenLookup{}, mustHasher(t), zap.NewNop())
	_, err := store.CreateGroup(context.Background(), "alice", "g", "password1")
	if !errors.Is(err, groupstore.ErrTransientStore) {
		t.Errorf("expected ErrTransientStore, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want groupstore.Kind
	}{
		{nil, groupstore.KindUnknown},
		{errors.New("other"), groupstore.KindUnknown},
		{groupstore.ErrMissingFields, groupstore.KindValidation},
		{groupstore.ErrPasswordTooShort, groupstore.KindValidation},
		{groupstore.ErrPasswordTooLong, groupstore.KindValidation},
		{groupstore.ErrUserNotFound, groupstore.KindNotFound},
		{groupstore.ErrGroupNotFound, groupstore.KindNotFound},
		{groupstore.ErrGroupAlreadyExists, groupstore.KindConflict},
		{groupstore.ErrIncorrectPassword, groupstore.KindConflict},
		{groupstore.ErrNotMember, groupstore.KindForbidden},
		{groupstore.ErrCorruptedGroupRecord, groupstore.KindIntegrity},
		{fmt.Errorf("wrap: %w", groupstore.ErrTransientStore), groupstore.KindTransient},
		{context.DeadlineExceeded, groupstore.KindTransient},
	}
	for _, tt := range tests {
		if got := groupstore.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func mustHasher(t *testing.T) *authutil.Hasher {
	t.Helper()
	h, err := authutil.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}
