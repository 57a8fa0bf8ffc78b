// internal/app/store/memberships/membershipstore.go
package membershipstore

// Every membership is stored twice:
//   - group_memberships/<group>/<user_id>: authoritative, listed per group
//   - user_groups/<user_id>/<group>:       back-reference, listed per user
// Both documents are written in the same docstore transaction. Each part of
// a composite ID is path-escaped, so a "/" inside a group name or user ID
// cannot make two pairs share a document.

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/domain/models"
)

const (
	Collection           = "group_memberships"
	UserGroupsCollection = "user_groups"
)

// MembershipKey is the group_memberships key for (group, userID).
func MembershipKey(group, userID string) docstore.Key {
	return docstore.Key{Collection: Collection, ID: compositeID(group, userID)}
}

// UserGroupKey is the user_groups key for (userID, group).
func UserGroupKey(userID, group string) docstore.Key {
	return docstore.Key{Collection: UserGroupsCollection, ID: compositeID(userID, group)}
}

func compositeID(a, b string) string {
	return url.PathEscape(a) + "/" + url.PathEscape(b)
}

// Result reports which of the two documents a transaction wrote.
type Result struct {
	MembershipCreated bool
	IndexCreated      bool
}

// Created reports whether anything was written.
func (r Result) Created() bool { return r.MembershipCreated || r.IndexCreated }

// EnsureInTx reads both documents and then stages whichever is missing.
// When both exist nothing is written. Both reads happen before any write.
// An existing Membership is authoritative: a missing back-reference is
// rebuilt from it rather than from m.
func EnsureInTx(ctx context.Context, tx docstore.Tx, m models.Membership) (Result, error) {
	var res Result

	var existing models.Membership
	hasMembership, err := tx.Get(ctx, MembershipKey(m.Group, m.UserID), &existing)
	if err != nil {
		return res, err
	}
	var ug models.UserGroup
	hasIndex, err := tx.Get(ctx, UserGroupKey(m.UserID, m.Group), &ug)
	if err != nil {
		return res, err
	}

	if !hasMembership {
		if err := tx.Create(MembershipKey(m.Group, m.UserID), m); err != nil {
			return res, err
		}
		existing = m
		res.MembershipCreated = true
	}
	if !hasIndex {
		if err := tx.Create(UserGroupKey(m.UserID, m.Group), models.MirrorOf(existing)); err != nil {
			return res, err
		}
		res.IndexCreated = true
	}
	return res, nil
}

// Store serves the read side of both collections.
type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

// Get loads the membership for (group, userID).
func (s *Store) Get(ctx context.Context, group, userID string) (models.Membership, bool, error) {
	var m models.Membership
	found, err := s.ds.Get(ctx, MembershipKey(group, userID), &m)
	if err != nil {
		return models.Membership{}, false, err
	}
	return m, found, nil
}

// ListByGroup returns a group's memberships ordered by user ID.
func (s *Store) ListByGroup(ctx context.Context, group string) ([]models.Membership, error) {
	docs, err := s.ds.Find(ctx, Collection, "group", group)
	if err != nil {
		return nil, err
	}
	out := make([]models.Membership, 0, len(docs))
	for _, d := range docs {
		var m models.Membership
		if err := d.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode membership %s: %w", d.ID(), err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ListByUser returns a user's group entries ordered by group name.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.UserGroup, error) {
	docs, err := s.ds.Find(ctx, UserGroupsCollection, "user_id", userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserGroup, 0, len(docs))
	for _, d := range docs {
		var ug models.UserGroup
		if err := d.Decode(&ug); err != nil {
			return nil, fmt.Errorf("decode user group %s: %w", d.ID(), err)
		}
		out = append(out, ug)
	}
	return out, nil
}
