package identity

import (
	"context"
	"time"

	"github.com/commercegrid/identity-service/pkg/rbac"
)

// CreateUserParams carries the fields persisted for a new user. Email
// must already be in canonical lowercase form.
type CreateUserParams struct {
	DisplayName  string
	Email        string
	PasswordHash string
	Role         rbac.Role
	PendingCode  string
	CodeExpiry   time.Time
	CreatedAt    time.Time
}

// UserRepository is the persistence contract for user records.
//
// Implementations must enforce case-insensitive uniqueness of email and
// display name atomically at the storage layer: two concurrent Create
// calls that both passed the service's existence checks must still
// resolve to exactly one success, the loser receiving an
// ALREADY_EXISTS coded error. Update operations apply atomically to a
// single row; the service performs no locking of its own.
type UserRepository interface {
	// Create persists a new user and returns it with the assigned id.
	// Uniqueness violations surface as coded ALREADY_EXISTS errors
	// naming the conflicting field.
	Create(ctx context.Context, params CreateUserParams) (User, error)

	// FindByEmail looks up a user by canonical (lowercase) email.
	// Returns a coded USER_NOT_FOUND error when absent.
	FindByEmail(ctx context.Context, email string) (User, error)

	// FindByID looks up a user by id
	FindByID(ctx context.Context, id int64) (User, error)

	// FindByDisplayName looks up a user by display name, case-insensitively
	FindByDisplayName(ctx context.Context, displayName string) (User, error)

	// List returns all users
	List(ctx context.Context) ([]User, error)

	// SetPendingCode replaces the pending verification code and expiry
	// in a single atomic update. The previous code becomes invalid.
	SetPendingCode(ctx context.Context, id int64, code string, expiry time.Time) (User, error)

	// MarkVerified sets verified=true and clears the pending code and
	// expiry in one atomic update.
	MarkVerified(ctx context.Context, id int64) (User, error)

	// SetRole updates the user's role
	SetRole(ctx context.Context, id int64, role rbac.Role) (User, error)
}
