// internal/domain/models/user.go
package models

import "time"

// User is the profile record owned by the identity service. reelhub only
// reads it to stamp display names and avatars onto groups and memberships.
type User struct {
	DisplayName string    `bson:"display_name" json:"display_name"`
	AvatarURL   string    `bson:"avatar_url" json:"avatar_url"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// UserProfile is the subset of a User needed by group operations.
type UserProfile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}
