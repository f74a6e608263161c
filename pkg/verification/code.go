package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/commercegrid/identity-service/pkg/errors"
)

// codeAlphabet is the character set verification codes are drawn from
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// DefaultCodeLength is the number of characters in a generated code
	DefaultCodeLength = 6
	// DefaultCodeLifetime is how long an issued code stays valid
	DefaultCodeLifetime = 30 * time.Minute
)

// CodeManager generates and validates short-lived one-time verification
// codes. It holds no per-user state; pending code and expiry live on the
// user record and are passed in for validation.
type CodeManager struct {
	length   int
	lifetime time.Duration
}

// CodeManagerOption defines configuration options
type CodeManagerOption func(*CodeManager)

// WithCodeLength sets the generated code length
func WithCodeLength(length int) CodeManagerOption {
	return func(m *CodeManager) {
		m.length = length
	}
}

// WithCodeLifetime sets the validity window for issued codes
func WithCodeLifetime(lifetime time.Duration) CodeManagerOption {
	return func(m *CodeManager) {
		m.lifetime = lifetime
	}
}

// NewCodeManager creates a new verification code manager
func NewCodeManager(opts ...CodeManagerOption) *CodeManager {
	m := &CodeManager{
		length:   DefaultCodeLength,
		lifetime: DefaultCodeLifetime,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Generate produces a random code drawn from A-Z and 0-9. The source is
// crypto/rand: the code acts as a short-lived authentication secret, so
// it must be unpredictable to an external observer.
func (m *CodeManager) Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(m.length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < m.length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Issue generates a fresh code with expiry = now + lifetime. Each call
// replaces any previously pending code; the old code becomes invalid once
// the caller persists the new one.
func (m *CodeManager) Issue(now time.Time) (string, time.Time, error) {
	code, err := m.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, now.Add(m.lifetime), nil
}

// Validate checks a submitted code against the stored pending code and
// expiry. The submitted value is trimmed and compared case-insensitively.
// Expiry is strict: a code is rejected the instant now passes codeExpiry,
// with no grace window. Validate has no side effects; on success the
// caller clears the stored fields and marks the user verified.
func (m *CodeManager) Validate(pendingCode *string, codeExpiry *time.Time, submitted string, now time.Time) error {
	if pendingCode == nil || codeExpiry == nil {
		return errors.New(errors.ErrCodeNoPendingCode, "no pending verification code")
	}
	if now.After(*codeExpiry) {
		return errors.New(errors.ErrCodeCodeExpired, "verification code expired")
	}
	if !strings.EqualFold(strings.TrimSpace(submitted), *pendingCode) {
		return errors.New(errors.ErrCodeCodeMismatch, "verification code does not match")
	}
	return nil
}
