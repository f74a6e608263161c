package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commercegrid/identity-service/pkg/errors"
)

func TestParseRole(t *testing.T) {
	t.Run("User", func(t *testing.T) {
		role, err := ParseRole("user")
		assert.NoError(t, err)
		assert.Equal(t, RoleUser, role)
	})

	t.Run("Admin", func(t *testing.T) {
		role, err := ParseRole("admin")
		assert.NoError(t, err)
		assert.Equal(t, RoleAdmin, role)
	})

	t.Run("CaseAndWhitespace", func(t *testing.T) {
		role, err := ParseRole("  Admin ")
		assert.NoError(t, err)
		assert.Equal(t, RoleAdmin, role)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseRole("superuser")
		assert.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRole))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseRole("")
		assert.Error(t, err)
	})
}

func TestRequireRole(t *testing.T) {
	t.Run("AdminCallingAdmin", func(t *testing.T) {
		assert.NoError(t, RequireRole(RoleAdmin, RoleAdmin))
	})

	t.Run("UserCallingAdmin", func(t *testing.T) {
		err := RequireRole(RoleUser, RoleAdmin)
		assert.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))
	})
}

func TestValidateAssignment(t *testing.T) {
	role, err := ValidateAssignment("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ValidateAssignment("root")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRole))
}
