// Package memory provides non-persistent repositories for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Init(context.Context) error { return nil }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usernameTaken(user.Username, 0) {
		return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrConflict)
	}

	now := time.Now().UTC()
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	if r.usernameTaken(user.Username, user.ID) {
		return fmt.Errorf("update user %q: %w", user.Username, repository.ErrConflict)
	}

	current.Username = user.Username
	current.Email = user.Email
	current.FullName = user.FullName
	current.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = current.UpdatedAt
	r.users[user.ID] = current
	return nil
}

func (r *UserRepository) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	current.PasswordHash = hash
	current.UpdatedAt = time.Now().UTC()
	r.users[id] = current
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.Search(ctx, repository.UserFilter{})
}

func (r *UserRepository) Search(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username := strings.ToLower(filter.Username)
	email := strings.ToLower(filter.Email)

	var users []domain.User
	for _, u := range r.users {
		if !strings.Contains(strings.ToLower(u.Username), username) {
			continue
		}
		if !strings.Contains(strings.ToLower(u.Email), email) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

// usernameTaken must be called with mu held.
func (r *UserRepository) usernameTaken(username string, exceptID int64) bool {
	for id, u := range r.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}
