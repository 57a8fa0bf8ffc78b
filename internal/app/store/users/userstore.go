package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/dalemusser/reelhub/internal/app/system/normalize"
	"github.com/dalemusser/reelhub/internal/domain/models"
)

// Collection holds one document per user, keyed by user ID.
const Collection = "users"

// ErrNotFound is returned when no users document exists for an ID.
var ErrNotFound = errors.New("user not found")

// Key returns the document key for a user.
func Key(userID string) docstore.Key {
	return docstore.Key{Collection: Collection, ID: userID}
}

type Store struct {
	ds  docstore.Store
	now func() time.Time
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds, now: func() time.Time { return time.Now().UTC() }}
}

// GetProfile loads the display fields for userID. Returns ErrNotFound if the
// user does not exist.
func (s *Store) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	id := normalize.UserID(userID)
	if id == "" {
		return models.UserProfile{}, ErrNotFound
	}
	var u models.User
	found, err := s.ds.Get(ctx, Key(id), &u)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("load user %s: %w", id, err)
	}
	if !found {
		return models.UserProfile{}, ErrNotFound
	}
	return models.UserProfile{
		UserID:      id,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}, nil
}

// Upsert creates or replaces the profile for userID, keeping the original
// CreatedAt when the user already exists.
func (s *Store) Upsert(ctx context.Context, userID, displayName, avatarURL string) error {
	id := normalize.UserID(userID)
	if id == "" {
		return errors.New("user id required")
	}
	return s.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		var existing models.User
		found, err := tx.Get(ctx, Key(id), &existing)
		if err != nil {
			return err
		}
		now := s.now()
		u := models.User{
			DisplayName: normalize.Name(displayName),
			AvatarURL:   avatarURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if found {
			u.CreatedAt = existing.CreatedAt
		}
		return tx.Set(Key(id), u)
	})
}
