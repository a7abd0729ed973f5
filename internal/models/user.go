package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleWarden  UserRole = "WARDEN"
	RoleGuard   UserRole = "GUARD"
)

// User represents an application user stored in the users table. For
// students, RegNo and RoomNo feed the identity snapshot copied onto every
// pass they create.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	RegNo        *string    `db:"reg_no" json:"reg_no,omitempty"`
	RoomNo       *string    `db:"room_no" json:"room_no,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
