package identity

import (
	"strings"
	"time"

	"github.com/commercegrid/identity-service/pkg/rbac"
)

// User is the durable account record owned by the UserRepository. Email
// is always stored in lowercase canonical form. PendingCode and
// CodeExpiry are either both present or both absent; a verified user has
// neither.
type User struct {
	ID           int64      `json:"id"`
	DisplayName  string     `json:"display_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Role         rbac.Role  `json:"role"`
	Verified     bool       `json:"verified"`
	PendingCode  *string    `json:"pending_code,omitempty"`
	CodeExpiry   *time.Time `json:"code_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserView is the public projection of a user: never the password hash,
// pending code or code expiry.
type UserView struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        rbac.Role `json:"role"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// View returns the public projection of the user
func (u User) View() UserView {
	return UserView{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		Verified:    u.Verified,
		CreatedAt:   u.CreatedAt,
	}
}

// CanonicalEmail lowercases and trims an email address. All storage and
// lookups go through this form so "User@Example.com" and
// "user@example.com" are the same identity.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterParams carries the registration request input
type RegisterParams struct {
	DisplayName     string
	Email           string
	Password        string
	PasswordConfirm string
}

// RegisterResult is returned from a successful registration
type RegisterResult struct {
	User UserView
}

// ResendResult reports the outcome of a resend-code request.
// AlreadyVerified indicates a no-op success, not an error. Code carries
// the freshly issued code only when the service exposes debug codes.
type ResendResult struct {
	AlreadyVerified bool   `json:"already_verified"`
	Code            string `json:"code,omitempty"`
}

// LoginResult carries the issued bearer token
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
