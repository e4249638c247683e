package models

import "github.com/google/uuid"

// Role is a member's role within one website. Authorization is always
// resolved against the owning website, never against a cached role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

type Membership struct {
	UserID    uuid.UUID `json:"user_id"`
	WebsiteID uuid.UUID `json:"website_id"`
	Role      Role      `json:"role"`
}
