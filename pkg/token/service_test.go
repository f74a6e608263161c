package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

const testSecret = "test-signing-secret"

func TestIssueAndVerify(t *testing.T) {
	svc := NewService(testSecret, "HS256")
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tokenStr, expiresAt, err := svc.Issue(42, "alice@x.com", rbac.RoleUser, now)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenStr)
	assert.Equal(t, now.Add(DefaultExpiry), expiresAt)

	claims, err := svc.Verify(tokenStr, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, rbac.RoleUser, claims.Role)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService(testSecret, "HS256")
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	tokenStr, _, err := svc.Issue(42, "alice@x.com", rbac.RoleUser, now)
	require.NoError(t, err)

	// Still valid just before expiry
	_, err = svc.Verify(tokenStr, now.Add(DefaultExpiry-time.Minute))
	assert.NoError(t, err)

	// Expired just after
	_, err = svc.Verify(tokenStr, now.Add(DefaultExpiry+time.Minute))
	assert.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService(testSecret, "HS256")
	now := time.Now()

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token", now)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewService("different-secret", "HS256")
		tokenStr, _, err := other.Issue(1, "bob@x.com", rbac.RoleAdmin, now)
		require.NoError(t, err)

		_, err = svc.Verify(tokenStr, now)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := svc.Verify("", now)
		assert.Error(t, err)
	})
}

func TestConfiguredExpiry(t *testing.T) {
	svc := NewService(testSecret, "HS256", WithExpiry(5*time.Minute))
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	_, expiresAt, err := svc.Issue(7, "carol@x.com", rbac.RoleUser, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), expiresAt)
}

func TestUnsupportedAlgorithmFallsBack(t *testing.T) {
	// RS256 needs an asymmetric key pair; the service only supports the
	// HMAC family and falls back to HS256.
	svc := NewService(testSecret, "RS256")
	now := time.Now()

	tokenStr, _, err := svc.Issue(1, "dave@x.com", rbac.RoleUser, now)
	require.NoError(t, err)

	_, err = svc.Verify(tokenStr, now)
	assert.NoError(t, err)
}

func TestHS512(t *testing.T) {
	svc := NewService(testSecret, "HS512")
	now := time.Now()

	tokenStr, _, err := svc.Issue(9, "eve@x.com", rbac.RoleAdmin, now)
	require.NoError(t, err)

	claims, err := svc.Verify(tokenStr, now)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)

	// An HS256 service must reject the HS512-signed token
	hs256 := NewService(testSecret, "HS256")
	_, err = hs256.Verify(tokenStr, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
}
