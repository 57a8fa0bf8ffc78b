// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	membershipstore "github.com/dalemusser/reelhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/reelhub/internal/app/store/users"
	"github.com/dalemusser/reelhub/internal/app/system/authutil"
	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/domain/models"
	"go.uber.org/zap"
)

// Collection holds one document per group, keyed by normalized name.
const Collection = "groups"

// Key returns the document key for a normalized group name.
func Key(name string) docstore.Key {
	return docstore.Key{Collection: Collection, ID: name}
}

// ProfileLookup resolves a user's display fields. It must return an error
// wrapping userstore.ErrNotFound when the user does not exist.
type ProfileLookup interface {
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
}

// Hasher hashes group passwords. Matches must compare in constant time and
// return an error (not false) for a malformed hash.
type Hasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
}

type Store struct {
	ds      docstore.Store
	users   ProfileLookup
	hasher  Hasher
	members *membershipstore.Store
	log     *zap.Logger
	now     func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(ds docstore.Store, users ProfileLookup, hasher Hasher, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		ds:      ds,
		users:   users,
		hasher:  hasher,
		members: membershipstore.New(ds),
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateGroup creates a group and makes the requester its first member.
// The creator is stored with role "member" like everyone else. It returns
// the normalized group name.
func (s *Store) CreateGroup(ctx context.Context, requesterID, groupName, password string) (string, error) {
	userID := normalize.UserID(requesterID)
	name := normalize.GroupName(groupName)
	if userID == "" || name == "" || password == "" {
		return "", ErrMissingFields
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return "", err
	}

	profile, err := s.lookupUser(ctx, userID)
	if err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash group password: %w", err)
	}

	now := s.now()
	g := models.Group{
		Name:         name,
		DisplayName:  normalize.Name(groupName),
		PasswordHash: hash,
		CreatedAt:    now,
		CreatedBy: models.CreatorSummary{
			UserID:      userID,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
		},
	}
	m := newMembership(name, profile, now)

	err = s.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var existing models.Group
		found, err := tx.Get(ctx, Key(name), &existing)
		if err != nil {
			return err
		}
		if found {
			return ErrGroupAlreadyExists
		}
		// Reads the membership pair before staging anything, so the group
		// write below stays after every read.
		if _, err := membershipstore.EnsureInTx(ctx, tx, m); err != nil {
			return err
		}
		return tx.Create(Key(name), g)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrGroupAlreadyExists), errors.Is(err, docstore.ErrAlreadyExists):
		return "", ErrGroupAlreadyExists
	default:
		return "", s.transient("create group", name, err)
	}

	s.log.Info("group created", zap.String("group", name), zap.String("user_id", userID))
	return name, nil
}

// JoinResult describes a successful join.
type JoinResult struct {
	Group string
	// Added is false when the requester already had a membership.
	Added bool
}

// JoinGroup adds the requester to an existing group after checking the
// group password. Joining a group twice is a no-op. It returns the
// normalized group name.
func (s *Store) JoinGroup(ctx context.Context, requesterID, groupName, password string) (string, error) {
	res, err := s.Join(ctx, requesterID, groupName, password)
	return res.Group, err
}

// Join is JoinGroup that also reports whether a membership was written.
func (s *Store) Join(ctx context.Context, requesterID, groupName, password string) (JoinResult, error) {
	userID := normalize.UserID(requesterID)
	name := normalize.GroupName(groupName)
	if userID == "" || name == "" || password == "" {
		return JoinResult{}, ErrMissingFields
	}

	// Groups are never updated, so a read outside the transaction is as
	// good as one inside it.
	var g models.Group
	found, err := s.ds.Get(ctx, Key(name), &g)
	if err != nil {
		return JoinResult{}, s.transient("load group", name, err)
	}
	if !found {
		return JoinResult{}, ErrGroupNotFound
	}

	profile, err := s.lookupUser(ctx, userID)
	if err != nil {
		return JoinResult{}, err
	}

	if g.PasswordHash == "" {
		s.log.Error("group record has no password hash", zap.String("group", name))
		return JoinResult{}, ErrCorruptedGroupRecord
	}
	// bcrypt ignores bytes past the limit, so a longer candidate could
	// match a password it only shares a prefix with.
	if len(password) > authutil.MaxPasswordBytes {
		return JoinResult{}, ErrIncorrectPassword
	}
	ok, err := s.hasher.Matches(g.PasswordHash, password)
	if err != nil {
		s.log.Error("group password hash unreadable", zap.String("group", name), zap.Error(err))
		return JoinResult{}, ErrCorruptedGroupRecord
	}
	if !ok {
		return JoinResult{}, ErrIncorrectPassword
	}

	m := newMembership(name, profile, s.now())
	var res membershipstore.Result
	err = s.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var err error
		res, err = membershipstore.EnsureInTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return JoinResult{}, s.transient("join group", name, err)
	}

	if res.Created() {
		s.log.Info("member joined group",
			zap.String("group", name),
			zap.String("user_id", userID),
			zap.Bool("membership_created", res.MembershipCreated),
			zap.Bool("index_created", res.IndexCreated))
	}
	return JoinResult{Group: name, Added: res.MembershipCreated}, nil
}

// GetGroup returns the caller-facing view of a group.
func (s *Store) GetGroup(ctx context.Context, groupName string) (models.GroupSummary, error) {
	name := normalize.GroupName(groupName)
	if name == "" {
		return models.GroupSummary{}, ErrMissingFields
	}
	var g models.Group
	found, err := s.ds.Get(ctx, Key(name), &g)
	if err != nil {
		return models.GroupSummary{}, s.transient("load group", name, err)
	}
	if !found {
		return models.GroupSummary{}, ErrGroupNotFound
	}
	return g.Summary(), nil
}

// ListMembers returns a group's memberships ordered by user ID.
func (s *Store) ListMembers(ctx context.Context, groupName string) ([]models.Membership, error) {
	if _, err := s.GetGroup(ctx, groupName); err != nil {
		return nil, err
	}
	name := normalize.GroupName(groupName)
	ms, err := s.members.ListByGroup(ctx, name)
	if err != nil {
		return nil, s.transient("list members", name, err)
	}
	return ms, nil
}

// GroupFor is GetGroup restricted to members of the group. Anyone else
// gets ErrNotMember.
func (s *Store) GroupFor(ctx context.Context, requesterID, groupName string) (models.GroupSummary, error) {
	g, err := s.GetGroup(ctx, groupName)
	if err != nil {
		return models.GroupSummary{}, err
	}
	if err := s.requireMember(ctx, g.Name, requesterID); err != nil {
		return models.GroupSummary{}, err
	}
	return g, nil
}

// MembersFor is ListMembers restricted to members of the group.
func (s *Store) MembersFor(ctx context.Context, requesterID, groupName string) ([]models.Membership, error) {
	if _, err := s.GroupFor(ctx, requesterID, groupName); err != nil {
		return nil, err
	}
	return s.ListMembers(ctx, groupName)
}

// ListUserGroups returns the groups userID belongs to, ordered by name.
func (s *Store) ListUserGroups(ctx context.Context, userID string) ([]models.UserGroup, error) {
	id := normalize.UserID(userID)
	if id == "" {
		return nil, ErrMissingFields
	}
	ugs, err := s.members.ListByUser(ctx, id)
	if err != nil {
		return nil, s.transient("list user groups", "", err)
	}
	return ugs, nil
}

func (s *Store) requireMember(ctx context.Context, name, requesterID string) error {
	userID := normalize.UserID(requesterID)
	if userID == "" {
		return ErrMissingFields
	}
	_, found, err := s.members.Get(ctx, name, userID)
	if err != nil {
		return s.transient("check membership", name, err)
	}
	if !found {
		return ErrNotMember
	}
	return nil
}

func (s *Store) lookupUser(ctx context.Context, userID string) (models.UserProfile, error) {
	p, err := s.users.GetProfile(ctx, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		return models.UserProfile{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserProfile{}, s.transient("load user", "", err)
	}
	p.UserID = userID
	return p, nil
}

func (s *Store) transient(op, group string, err error) error {
	s.log.Warn("group store operation failed",
		zap.String("op", op),
		zap.String("group", group),
		zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrTransientStore, op, err)
}

func newMembership(group string, p models.UserProfile, at time.Time) models.Membership {
	return models.Membership{
		Group:       group,
		UserID:      p.UserID,
		Role:        models.RoleMember,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		JoinedAt:    at,
	}
}
