// internal/app/store/audit/store.go
package audit

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/google/uuid"
)

// Collection holds one document per audit event.
const Collection = "audit_events"

// Event categories
const (
	CategoryGroups   = "groups"
	CategorySecurity = "security"
)

// Group event types
const (
	EventGroupCreated                 = "group_created"
	EventMemberAddedToGroup           = "member_added_to_group"
	EventGroupJoinFailedWrongPassword = "group_join_failed_wrong_password"
)

// Security event types
const (
	EventAPIKeyRejected = "api_key_rejected"
)

// Event represents an audit event.
type Event struct {
	ID        string    `bson:"id" json:"id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// Who
	UserID string `bson:"user_id,omitempty" json:"user_id,omitempty"`

	// Context
	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`

	// UserEvent is UserEventKey(UserID, EventType), set by Log for events
	// that have a user. It lets GetByUserAndType filter in the store.
	UserEvent string `bson:"user_event,omitempty" json:"-"`
}

// UserEventKey combines a user ID and an event type into one lookup value.
// Both parts are path-escaped so the combination is unambiguous.
func UserEventKey(userID, eventType string) string {
	return url.PathEscape(userID) + "/" + url.PathEscape(eventType)
}

// Store manages audit event records.
type Store struct {
	ds  docstore.Store
	now func() time.Time
}

// New creates a new audit Store.
func New(ds docstore.Store) *Store {
	return &Store{ds: ds, now: func() time.Time { return time.Now().UTC() }}
}

// Log records an audit event. Events get a time-ordered UUID and the current
// time when those fields are empty.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("audit event id: %w", err)
		}
		event.ID = id.String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if event.UserID != "" {
		event.UserEvent = UserEventKey(event.UserID, event.EventType)
	}
	key := docstore.Key{Collection: Collection, ID: event.ID}
	return s.ds.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Create(key, event)
	})
}

// GetByUser returns the most recent events for a user, newest first.
// limit <= 0 returns everything.
func (s *Store) GetByUser(ctx context.Context, userID string, limit int) ([]Event, error) {
	return s.find(ctx, "user_id", userID, limit)
}

// GetByUserAndType returns a user's most recent events of one type, newest
// first. limit <= 0 returns everything.
func (s *Store) GetByUserAndType(ctx context.Context, userID, eventType string, limit int) ([]Event, error) {
	return s.find(ctx, "user_event", UserEventKey(userID, eventType), limit)
}

func (s *Store) find(ctx context.Context, field, value string, limit int) ([]Event, error) {
	docs, err := s.ds.Find(ctx, Collection, field, value)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(docs))
	for _, d := range docs {
		var e Event
		if err := d.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode audit event %s: %w", d.ID(), err)
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
