package identity

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

const userColumns = "id, display_name, email, password_hash, role, verified, pending_code, code_expiry, created_at"

// PostgresUserRepository implements UserRepository using PostgreSQL.
// Uniqueness of email and display name is enforced by unique indexes on
// lower(email) and lower(display_name), so two racing registrations that
// both passed the service's existence check still resolve to one winner.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-based user repository
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PasswordHash, &role,
		&u.Verified, &u.PendingCode, &u.CodeExpiry, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	u.Role = rbac.Role(role)
	return u, nil
}

// Create persists a new user. A unique index violation is translated into
// an ALREADY_EXISTS error naming the conflicting field, never propagated
// raw to the caller.
func (r *PostgresUserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (display_name, email, password_hash, role, verified, pending_code, code_expiry, created_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, $7)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		params.DisplayName,
		CanonicalEmail(params.Email),
		params.PasswordHash,
		params.Role.String(),
		params.PendingCode,
		params.CodeExpiry,
		params.CreatedAt,
	)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "display_name") {
				return User{}, errors.AlreadyExists("display name", params.DisplayName)
			}
			return User{}, errors.AlreadyExists("email", params.Email)
		}
		return User{}, errors.Internal(err)
	}
	return u, nil
}

// FindByEmail retrieves a user by canonical email
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, CanonicalEmail(email)))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %s", email)
		}
		return User{}, errors.Internal(err)
	}
	return u, nil
}

// FindByID retrieves a user by id
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %d", id)
		}
		return User{}, errors.Internal(err)
	}
	return u, nil
}

// FindByDisplayName retrieves a user by display name, case-insensitively
func (r *PostgresUserRepository) FindByDisplayName(ctx context.Context, displayName string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(display_name) = lower($1)`
	u, err := scanUser(r.db.QueryRow(ctx, query, displayName))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %s", displayName)
		}
		return User{}, errors.Internal(err)
	}
	return u, nil
}

// List returns all users ordered by id
func (r *PostgresUserRepository) List(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Internal(err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Internal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(err)
	}
	return users, nil
}

// SetPendingCode replaces the pending verification code and expiry in a
// single statement.
func (r *PostgresUserRepository) SetPendingCode(ctx context.Context, id int64, code string, expiry time.Time) (User, error) {
	query := `
		UPDATE users SET pending_code = $2, code_expiry = $3
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateRow(ctx, id, query, id, code, expiry)
}

// MarkVerified sets verified and clears the pending code and expiry in a
// single statement.
func (r *PostgresUserRepository) MarkVerified(ctx context.Context, id int64) (User, error) {
	query := `
		UPDATE users SET verified = true, pending_code = NULL, code_expiry = NULL
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateRow(ctx, id, query, id)
}

// SetRole updates the user's role
func (r *PostgresUserRepository) SetRole(ctx context.Context, id int64, role rbac.Role) (User, error) {
	query := `
		UPDATE users SET role = $2
		WHERE id = $1
		RETURNING ` + userColumns
	return r.updateRow(ctx, id, query, id, role.String())
}

func (r *PostgresUserRepository) updateRow(ctx context.Context, id int64, query string, args ...interface{}) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %d", id)
		}
		return User{}, errors.Internal(err)
	}
	return u, nil
}
