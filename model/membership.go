package model

import "time"

// Role of a user within one tenant.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership links a user to a tenant with a role. A user may belong to
// several tenants with different roles.
type Membership struct {
	TenantID  string    `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	UserID    string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
