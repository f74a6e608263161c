package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/commercegrid/identity-service/pkg/errors"
	"github.com/commercegrid/identity-service/pkg/rbac"
)

const usersFileName = "users.json"

// FileUserRepository implements UserRepository using file-based storage.
// All mutations run under a single mutex, which gives the same
// single-writer atomicity the contract requires from the relational
// backend.
type FileUserRepository struct {
	dataDir string
	users   map[int64]User
	nextID  int64
	mutex   sync.RWMutex
}

// NewFileUserRepository creates a new file-based user repository
func NewFileUserRepository(dataDir string) (*FileUserRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileUserRepository{
		dataDir: dataDir,
		users:   make(map[int64]User),
		nextID:  1,
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

type fileState struct {
	NextID int64  `json:"next_id"`
	Users  []User `json:"users"`
}

func (r *FileUserRepository) filePath() string {
	return filepath.Join(r.dataDir, usersFileName)
}

func (r *FileUserRepository) load() error {
	data, err := os.ReadFile(r.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse %s: %w", usersFileName, err)
	}

	r.users = make(map[int64]User, len(state.Users))
	for _, u := range state.Users {
		r.users[u.ID] = u
	}
	r.nextID = state.NextID
	if r.nextID < 1 {
		r.nextID = 1
	}
	return nil
}

// save writes the full state to disk. Callers must hold the write lock.
func (r *FileUserRepository) save() error {
	state := fileState{NextID: r.nextID, Users: make([]User, 0, len(r.users))}
	for _, u := range r.users {
		state.Users = append(state.Users, u)
	}
	sort.Slice(state.Users, func(i, j int) bool { return state.Users[i].ID < state.Users[j].ID })

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.filePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.filePath())
}

// Create persists a new user, enforcing case-insensitive uniqueness of
// email and display name under the write lock.
func (r *FileUserRepository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	email := CanonicalEmail(params.Email)
	for _, u := range r.users {
		if u.Email == email {
			return User{}, errors.AlreadyExists("email", params.Email)
		}
		if strings.EqualFold(u.DisplayName, params.DisplayName) {
			return User{}, errors.AlreadyExists("display name", params.DisplayName)
		}
	}

	code := params.PendingCode
	expiry := params.CodeExpiry
	user := User{
		ID:           r.nextID,
		DisplayName:  params.DisplayName,
		Email:        email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		Verified:     false,
		PendingCode:  &code,
		CodeExpiry:   &expiry,
		CreatedAt:    params.CreatedAt,
	}
	r.nextID++
	r.users[user.ID] = user

	if err := r.save(); err != nil {
		delete(r.users, user.ID)
		r.nextID--
		return User{}, errors.Internal(err)
	}
	return user, nil
}

// FindByEmail retrieves a user by canonical email
func (r *FileUserRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	email = CanonicalEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %s", email)
}

// FindByID retrieves a user by id
func (r *FileUserRepository) FindByID(ctx context.Context, id int64) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %d", id)
	}
	return u, nil
}

// FindByDisplayName retrieves a user by display name, case-insensitively
func (r *FileUserRepository) FindByDisplayName(ctx context.Context, displayName string) (User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.DisplayName, displayName) {
			return u, nil
		}
	}
	return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %s", displayName)
}

// List returns all users ordered by id
func (r *FileUserRepository) List(ctx context.Context) ([]User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// SetPendingCode replaces the pending verification code and expiry
func (r *FileUserRepository) SetPendingCode(ctx context.Context, id int64, code string, expiry time.Time) (User, error) {
	return r.update(id, func(u *User) {
		c, e := code, expiry
		u.PendingCode = &c
		u.CodeExpiry = &e
	})
}

// MarkVerified sets verified and clears the pending code and expiry
func (r *FileUserRepository) MarkVerified(ctx context.Context, id int64) (User, error) {
	return r.update(id, func(u *User) {
		u.Verified = true
		u.PendingCode = nil
		u.CodeExpiry = nil
	})
}

// SetRole updates the user's role
func (r *FileUserRepository) SetRole(ctx context.Context, id int64, role rbac.Role) (User, error) {
	return r.update(id, func(u *User) {
		u.Role = role
	})
}

func (r *FileUserRepository) update(id int64, mutate func(*User)) (User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, exists := r.users[id]
	if !exists {
		return User{}, errors.Newf(errors.ErrCodeUserNotFound, "user not found: %d", id)
	}

	prev := u
	mutate(&u)
	r.users[id] = u

	if err := r.save(); err != nil {
		r.users[id] = prev
		return User{}, errors.Internal(err)
	}
	return u, nil
}
