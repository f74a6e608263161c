package token

import (
	stderrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

// DefaultExpiry is the lifetime of issued tokens unless configured otherwise
const DefaultExpiry = 60 * time.Minute

// Claims carries the identity embedded in issued tokens
type Claims struct {
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the token subject as a numeric user id
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeTokenInvalid, "malformed token subject")
	}
	return id, nil
}

// Service issues and verifies signed, self-contained bearer tokens.
// The signing secret, method and expiry are process-wide configuration
// passed in once at construction; the service itself is stateless and
// safe for concurrent use.
type Service struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	expiry time.Duration
}

// ServiceOption defines configuration options
type ServiceOption func(*Service)

// WithExpiry sets the token lifetime
func WithExpiry(expiry time.Duration) ServiceOption {
	return func(s *Service) {
		s.expiry = expiry
	}
}

// WithIssuer sets the iss claim on issued tokens
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// NewService creates a token service. The algorithm name must be one of
// the HMAC family (HS256, HS384, HS512); anything else falls back to
// HS256 with a warning.
func NewService(secret, algorithm string, opts ...ServiceOption) *Service {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		slog.Warn("Unsupported signing algorithm, falling back to HS256", "algorithm", algorithm)
		method = jwt.SigningMethodHS256
	}

	s := &Service{
		secret: []byte(secret),
		method: method,
		expiry: DefaultExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expiry returns the configured token lifetime
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// Issue creates a signed token embedding the user's id, email and role,
// expiring at now + the configured lifetime.
func (s *Service) Issue(userID int64, email string, role rbac.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.UTC().Add(s.expiry)
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			Issuer:    s.issuer,
			ID:        uuid.New().String(),
		},
	}

	tok := jwt.NewWithClaims(s.method, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		slog.Error("Failed to sign token", "err", err)
		return "", time.Time{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token string against the configured
// secret and algorithm, evaluating expiry at the supplied instant.
//
// There is no revocation list: a token that verifies is trusted for its
// full lifetime regardless of account changes after issuance. Callers
// needing the live account state must re-resolve the subject against the
// store.
func (s *Service) Verify(tokenStr string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, stderrors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(err, errors.ErrCodeTokenExpired, "token expired")
		}
		return nil, errors.Wrap(err, errors.ErrCodeTokenInvalid, "malformed token")
	}
	if !tok.Valid {
		return nil, errors.New(errors.ErrCodeTokenInvalid, "malformed token")
	}
	return claims, nil
}
