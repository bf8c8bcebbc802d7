package models

// Role is a named permission group attached to users.
type Role struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	GuardName string `json:"guard_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Permission is a single named capability.
type Permission struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	GuardName string `json:"guard_name,omitempty"`
}

// User represents a dashboard account.
type User struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	EmailVerifiedAt *string      `json:"email_verified_at,omitempty"`
	Roles           []Role       `json:"roles,omitempty"`
	Permissions     []Permission `json:"permissions,omitempty"`
	CreatedAt       string       `json:"created_at,omitempty"`
	UpdatedAt       string       `json:"updated_at,omitempty"`
}

// Worker is a field technician account. The backend exposes workers on a
// separate resource from users but the record shape is user-like.
type Worker struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
