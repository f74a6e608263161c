package credentials

import (
	"strings"

	"github.com/commercegrid/identity-service/pkg/errors"
)

// specialChars is the punctuation/symbol set accepted by the complexity check
const specialChars = "!@#$%^&*()-_=+[]{};:'\",<.>/?\\|`~"

// PasswordPolicy defines the requirements for password complexity
type PasswordPolicy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
}

// DefaultPasswordPolicy returns the policy enforced at registration:
// at least 8 characters with one uppercase, one lowercase, one digit and
// one special character.
func DefaultPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: true,
	}
}

// PolicyChecker defines the interface for checking password complexity
type PolicyChecker interface {
	CheckComplexity(password string) error
}

// DefaultPolicyChecker implements the PolicyChecker interface
type DefaultPolicyChecker struct {
	policy *PasswordPolicy
}

// NewDefaultPolicyChecker creates a policy checker; a nil policy falls
// back to DefaultPasswordPolicy.
func NewDefaultPolicyChecker(policy *PasswordPolicy) *DefaultPolicyChecker {
	if policy == nil {
		policy = DefaultPasswordPolicy()
	}
	return &DefaultPolicyChecker{policy: policy}
}

// CheckComplexity verifies that a password meets the complexity
// requirements. It is a pure predicate with no side effects.
func (pc *DefaultPolicyChecker) CheckComplexity(password string) error {
	if len(password) < pc.policy.MinLength {
		return errors.Newf(errors.ErrCodePasswordComplexity,
			"password must be at least %d characters long", pc.policy.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, c):
			hasSpecial = true
		}
	}

	if pc.policy.RequireUppercase && !hasUpper {
		return errors.New(errors.ErrCodePasswordComplexity,
			"password must contain at least one uppercase letter")
	}
	if pc.policy.RequireLowercase && !hasLower {
		return errors.New(errors.ErrCodePasswordComplexity,
			"password must contain at least one lowercase letter")
	}
	if pc.policy.RequireDigit && !hasDigit {
		return errors.New(errors.ErrCodePasswordComplexity,
			"password must contain at least one digit")
	}
	if pc.policy.RequireSpecialChar && !hasSpecial {
		return errors.New(errors.ErrCodePasswordComplexity,
			"password must contain at least one special character")
	}

	return nil
}
