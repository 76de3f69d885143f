package entity

import "time"

// User is a directory entry
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user administers cases
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CallerIdentity is the authenticated user on whose behalf an operation runs
type CallerIdentity struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (c CallerIdentity) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsAuthenticated reports whether the identity names a user
func (c CallerIdentity) IsAuthenticated() bool {
	return c.UserID > 0 && IsValidRole(c.Role)
}
