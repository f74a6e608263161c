package api

import "time"

// RegisterRequest is the POST /register payload
type RegisterRequest struct {
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// VerifyRequest is the POST /verify payload
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendRequest is the POST /resend payload
type ResendRequest struct {
	Email string `json:"email"`
}

// LoginRequest is the POST /login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangeRoleRequest is the PUT /change-role payload
type ChangeRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserResponse is the public user payload
type UserResponse struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenResponse is the successful login payload
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ResendResponse reports the outcome of a resend request
type ResendResponse struct {
	AlreadyVerified bool   `json:"already_verified"`
	Code            string `json:"code,omitempty"`
}

// VerifyResponse reports a successful verification
type VerifyResponse struct {
	Message string `json:"message"`
}

// ChangeRoleResponse reports a successful role change
type ChangeRoleResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ErrorResponse is the error payload returned on every failure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
