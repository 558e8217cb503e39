package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/repository"
)

// Directory adapts a UserRepository to the lookups the auth core needs.
type Directory struct {
	users repository.UserRepository
}

func NewDirectory(users repository.UserRepository) *Directory {
	return &Directory{users: users}
}

var (
	_ auth.Directory          = (*Directory)(nil)
	_ auth.CredentialReplacer = (*Directory)(nil)
)

func (d *Directory) FindCredential(ctx context.Context, identifier string) (*auth.Credential, error) {
	user, err := d.users.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &auth.Credential{
		PrincipalID:  SubjectFor(user.ID),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	}, nil
}

func (d *Directory) FindPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	userID, err := ParseSubject(id)
	if err != nil {
		return nil, auth.ErrNotFound
	}
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	p := principalFor(user)
	return &p, nil
}

func (d *Directory) ReplaceCredential(ctx context.Context, principalID, passwordHash string) error {
	userID, err := ParseSubject(principalID)
	if err != nil {
		return err
	}
	return d.users.UpdatePasswordHash(ctx, userID, passwordHash)
}

// SubjectFor is the canonical token subject for a user id.
func SubjectFor(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ParseSubject converts a token subject back into a user id.
func ParseSubject(subject string) (int64, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", subject)
	}
	return id, nil
}

func principalFor(user *domain.User) auth.Principal {
	return auth.Principal{
		ID:       SubjectFor(user.ID),
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return auth.ErrNotFound
	}
	return err
}
