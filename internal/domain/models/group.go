// internal/domain/models/group.go
package models

import "time"

// Group is a password-protected group keyed by its normalized name.
//
// NOTE:
//   - Members are not embedded on Group. Each membership lives in
//     group_memberships and is mirrored into user_groups.
//   - PasswordHash must never leave the store layer; use GroupSummary
//     for anything returned to callers.
type Group struct {
	Name         string         `bson:"name" json:"name"`                 // normalized (trimmed, lowercased)
	DisplayName  string         `bson:"display_name" json:"display_name"` // trimmed, as typed by the creator
	PasswordHash string         `bson:"password_hash" json:"password_hash"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	CreatedBy    CreatorSummary `bson:"created_by" json:"created_by"`
}

// CreatorSummary is a snapshot of the creating user's profile at creation time.
type CreatorSummary struct {
	UserID      string `bson:"user_id" json:"user_id"`
	DisplayName string `bson:"display_name" json:"display_name"`
	AvatarURL   string `bson:"avatar_url" json:"avatar_url"`
}

// GroupSummary is the caller-facing view of a Group.
type GroupSummary struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   CreatorSummary `json:"created_by"`
}

// Summary strips the password hash.
func (g Group) Summary() GroupSummary {
	return GroupSummary{
		Name:        g.Name,
		DisplayName: g.DisplayName,
		CreatedAt:   g.CreatedAt,
		CreatedBy:   g.CreatedBy,
	}
}
