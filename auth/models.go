package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Name                string     `bun:"name,notnull" json:"name"`
	Email               string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash        string     `bun:"password_hash,notnull" json:"-"`
	Role                Role       `bun:"role,notnull" json:"role"`
	ResetPasswordToken  *string    `bun:"reset_password_token" json:"-"`
	ResetPasswordExpire *time.Time `bun:"reset_password_expire" json:"-"`
	LoggedInAt          *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasResetToken reports whether a reset is pending.
func (u *User) HasResetToken() bool {
	return u != nil && u.ResetPasswordToken != nil && u.ResetPasswordExpire != nil
}

// IsRole checks the user role against the given set
func (u *User) IsRole(roles RoleSet) bool {
	if u == nil {
		return false
	}
	return roles.Contains(u.Role)
}

// Profile is the outward representation of a user
type Profile struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ToProfile strips credential fields.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
