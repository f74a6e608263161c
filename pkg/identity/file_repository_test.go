package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

func testCreateParams(name, email string) CreateUserParams {
	return CreateUserParams{
		DisplayName:  name,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Role:         rbac.RoleUser,
		PendingCode:  "A1B2C3",
		CodeExpiry:   time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC),
		CreatedAt:    time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, err := repo.Create(ctx, testCreateParams("alice", "Alice@X.com"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "alice@x.com", user.Email, "email stored in canonical lowercase form")
		assert.False(t, user.Verified)
		require.NotNil(t, user.PendingCode)
		require.NotNil(t, user.CodeExpiry)
	})

	t.Run("DuplicateEmailDifferentCase", func(t *testing.T) {
		_, err := repo.Create(ctx, testCreateParams("someone", "ALICE@x.COM"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadyExists))
	})

	t.Run("DuplicateDisplayNameDifferentCase", func(t *testing.T) {
		_, err := repo.Create(ctx, testCreateParams("Alice", "fresh@x.com"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadyExists))
	})

	t.Run("IDsAreSequential", func(t *testing.T) {
		user, err := repo.Create(ctx, testCreateParams("bob", "bob@x.com"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), user.ID)
	})
}

func TestFileUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	created, err := repo.Create(ctx, testCreateParams("alice", "alice@x.com"))
	require.NoError(t, err)

	t.Run("FindByEmailMixedCase", func(t *testing.T) {
		user, err := repo.FindByEmail(ctx, "Alice@X.COM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("FindByID", func(t *testing.T) {
		user, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.DisplayName)
	})

	t.Run("FindByDisplayNameMixedCase", func(t *testing.T) {
		user, err := repo.FindByDisplayName(ctx, "ALICE")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "ghost@x.com")
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))

		_, err = repo.FindByID(ctx, 999)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
	})
}

func TestFileUserRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	created, err := repo.Create(ctx, testCreateParams("alice", "alice@x.com"))
	require.NoError(t, err)

	t.Run("SetPendingCode", func(t *testing.T) {
		expiry := time.Date(2025, 3, 14, 13, 0, 0, 0, time.UTC)
		user, err := repo.SetPendingCode(ctx, created.ID, "ZZ9XY7", expiry)
		require.NoError(t, err)
		require.NotNil(t, user.PendingCode)
		assert.Equal(t, "ZZ9XY7", *user.PendingCode)
		assert.Equal(t, expiry, *user.CodeExpiry)
	})

	t.Run("MarkVerifiedClearsCode", func(t *testing.T) {
		user, err := repo.MarkVerified(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, user.Verified)
		assert.Nil(t, user.PendingCode)
		assert.Nil(t, user.CodeExpiry)
	})

	t.Run("SetRole", func(t *testing.T) {
		user, err := repo.SetRole(ctx, created.ID, rbac.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleAdmin, user.Role)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := repo.MarkVerified(ctx, 999)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
	})
}

func TestFileUserRepository_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	repo, err := NewFileUserRepository(dir)
	require.NoError(t, err)

	created, err := repo.Create(ctx, testCreateParams("alice", "alice@x.com"))
	require.NoError(t, err)
	_, err = repo.MarkVerified(ctx, created.ID)
	require.NoError(t, err)

	// A new repository over the same directory sees the persisted state
	reopened, err := NewFileUserRepository(dir)
	require.NoError(t, err)

	user, err := reopened.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, user.Verified)
	assert.Nil(t, user.PendingCode)

	// New ids continue after the persisted ones
	second, err := reopened.Create(ctx, testCreateParams("bob", "bob@x.com"))
	require.NoError(t, err)
	assert.Equal(t, created.ID+1, second.ID)
}

func TestFileUserRepository_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	// Many goroutines racing on the same email: exactly one must win.
	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, testCreateParams("alice", "alice@x.com"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
		} else if errors.IsCode(err, errors.ErrCodeAlreadyExists) {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestFileUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFileUserRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Create(ctx, testCreateParams("bob", "bob@x.com"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testCreateParams("alice", "alice@x.com"))
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].DisplayName, "ordered by id")
	assert.Equal(t, "alice", users[1].DisplayName)
}
