package model

import "time"

type ProfileRole string

const (
	RoleParent ProfileRole = "parent"
	RoleChild  ProfileRole = "child"
)

type Profile struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Role        ProfileRole `json:"role"`
	Color       string      `json:"color"`
	AvatarEmoji string      `json:"avatar_emoji"`
	Active      bool        `json:"active"`
	SortOrder   int         `json:"sort_order"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
