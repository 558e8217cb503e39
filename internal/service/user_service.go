package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/repository"
)

// Passwords hashes and checks passwords; *auth.Service satisfies it.
type Passwords interface {
	HashPassword(ctx context.Context, plaintext string) (string, error)
	VerifyPassword(ctx context.Context, plaintext, hash string) (bool, error)
}

// PostCleaner removes everything a user has posted.
type PostCleaner interface {
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

type UpdateUserInput struct {
	Username string
	Email    string
	FullName string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Search(ctx context.Context, filter repository.UserFilter) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, actor *auth.Identity, id int64, input UpdateUserInput) (*domain.User, error)
	ChangePassword(ctx context.Context, actor *auth.Identity, id int64, current, next string) error
	Delete(ctx context.Context, actor *auth.Identity, id int64) (*domain.User, error)
}

type userService struct {
	users     repository.UserRepository
	passwords Passwords
	posts     PostCleaner
}

func NewUserService(users repository.UserRepository, passwords Passwords, posts PostCleaner) UserService {
	return &userService{
		users:     users,
		passwords: passwords,
		posts:     posts,
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	hash, err := s.passwords.HashPassword(ctx, input.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

func (s *userService) Search(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

func (s *userService) Count(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *userService) Update(ctx context.Context, actor *auth.Identity, id int64, input UpdateUserInput) (*domain.User, error) {
	if !actor.Owns(SubjectFor(id)) {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	user.Username = username
	user.Email = strings.TrimSpace(input.Email)
	user.FullName = strings.TrimSpace(input.FullName)

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// ChangePassword replaces the stored hash wholesale once the current password checks out.
func (s *userService) ChangePassword(ctx context.Context, actor *auth.Identity, id int64, current, next string) error {
	if !actor.Owns(SubjectFor(id)) {
		return ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.passwords.VerifyPassword(ctx, current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrInvalidCredentials
	}

	hash, err := s.passwords.HashPassword(ctx, next)
	if err != nil {
		return passwordError(err)
	}
	return s.users.UpdatePasswordHash(ctx, id, hash)
}

// Delete removes the user's posts and then the account. The steps are not
// atomic: a failed post cleanup leaves the account in place so the call can be
// retried, but if removing the account itself fails the posts are already gone.
func (s *userService) Delete(ctx context.Context, actor *auth.Identity, id int64) (*domain.User, error) {
	if !actor.Owns(SubjectFor(id)) {
		return nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.posts != nil {
		if err := s.posts.DeleteAllForUser(ctx, id); err != nil {
			return nil, fmt.Errorf("delete posts of user %d: %w", id, err)
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrEmptyPassword) || errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

func sanitizeUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *sanitizeUser(&users[i])
	}
	return out
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
