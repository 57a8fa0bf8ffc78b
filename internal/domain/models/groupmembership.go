// internal/domain/models/groupmembership.go
package models

import "time"

// Membership roles. Only RoleMember is assigned today, including to a
// group's creator.
const (
	RoleMember = "member"
	RoleOwner  = "owner"
)

// Membership is the authoritative join between a group and a user.
// Exactly one document per (group, user_id).
type Membership struct {
	Group       string    `bson:"group" json:"group"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Role        string    `bson:"role" json:"role"` // "member" | "owner"
	DisplayName string    `bson:"display_name" json:"display_name"`
	AvatarURL   string    `bson:"avatar_url" json:"avatar_url"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
}

// UserGroup is the per-user back-reference of a Membership, stored in
// user_groups so a user's groups can be listed without scanning
// group_memberships. It is always written in the same transaction as the
// Membership it mirrors.
type UserGroup struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	Group       string    `bson:"group" json:"group"`
	Role        string    `bson:"role" json:"role"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	AvatarURL   string    `bson:"avatar_url" json:"avatar_url"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
}

// MirrorOf builds the UserGroup entry for a Membership.
func MirrorOf(m Membership) UserGroup {
	return UserGroup{
		UserID:      m.UserID,
		Group:       m.Group,
		Role:        m.Role,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		JoinedAt:    m.JoinedAt,
	}
}
