package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Credential is the stored identifier and password hash for one principal.
type Credential struct {
	PrincipalID  string
	Username     string
	PasswordHash string
}

// CredentialFinder looks up credentials by login identifier.
// Implementations return ErrNotFound when no credential matches.
type CredentialFinder interface {
	FindCredential(ctx context.Context, identifier string) (*Credential, error)
}

// PrincipalFinder looks up principals by durable id.
// Implementations return ErrNotFound when no principal matches.
type PrincipalFinder interface {
	FindPrincipal(ctx context.Context, id string) (*Principal, error)
}

// Directory is the lookup collaborator required by Service.
type Directory interface {
	CredentialFinder
	PrincipalFinder
}

// CredentialReplacer is optionally implemented by a Directory so that
// outdated hashes can be upgraded after a successful login.
type CredentialReplacer interface {
	ReplaceCredential(ctx context.Context, principalID, passwordHash string) error
}

// Service verifies credentials, issues tokens and resolves tokens to identities.
type Service struct {
	directory Directory
	hasher    PasswordHasher
	tokens    *TokenIssuer
	pool      *HashPool
	logger    logrus.FieldLogger
	dummyHash string
}

func NewService(directory Directory, hasher PasswordHasher, tokens *TokenIssuer, pool *HashPool, logger logrus.FieldLogger) (*Service, error) {
	if pool == nil {
		pool = NewHashPool(0)
	}
	if logger == nil {
		logger = logrus.New()
	}

	// Unknown users are verified against this hash so a miss costs the same as a wrong password.
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		directory: directory,
		hasher:    hasher,
		tokens:    tokens,
		pool:      pool,
		logger:    logger.WithField("component", "auth"),
		dummyHash: dummy,
	}, nil
}

// TokenTTL is the lifetime of tokens issued by Login.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.DefaultTTL()
}

// Login checks identifier and password and returns a token whose subject is
// the principal's durable id. Unknown identifiers and wrong passwords both
// yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, identifier, password string) (IssuedToken, error) {
	cred, err := s.directory.FindCredential(ctx, identifier)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return IssuedToken{}, fmt.Errorf("find credential: %w", err)
	}
	found := err == nil && cred != nil

	target := s.dummyHash
	if found {
		target = cred.PasswordHash
	}

	var ok bool
	if err := s.pool.Do(ctx, func() { ok = s.hasher.Verify(password, target) }); err != nil {
		return IssuedToken{}, fmt.Errorf("verify password: %w", err)
	}

	if !found || !ok {
		s.logger.WithField("reason", reason(found)).Info("login rejected")
		return IssuedToken{}, ErrInvalidCredentials
	}

	s.upgradeHash(ctx, cred, password)

	token, err := s.tokens.Issue(cred.PrincipalID, 0)
	if err != nil {
		return IssuedToken{}, err
	}
	s.logger.WithField("principal_id", cred.PrincipalID).Debug("login succeeded")
	return token, nil
}

// Resolve validates token and loads the principal it names.
func (s *Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.WithError(err).Debug("token rejected")
		return nil, ErrInvalidToken
	}

	principal, err := s.directory.FindPrincipal(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WithField("principal_id", subject).Info("token subject no longer exists")
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	return &Identity{Subject: subject, Principal: *principal}, nil
}

// HashPassword hashes plaintext on the shared hash pool.
func (s *Service) HashPassword(ctx context.Context, plaintext string) (string, error) {
	var (
		hash    string
		hashErr error
	)
	if err := s.pool.Do(ctx, func() { hash, hashErr = s.hasher.Hash(plaintext) }); err != nil {
		return "", err
	}
	return hash, hashErr
}

// VerifyPassword checks plaintext against hash on the shared hash pool.
func (s *Service) VerifyPassword(ctx context.Context, plaintext, hash string) (bool, error) {
	var ok bool
	if err := s.pool.Do(ctx, func() { ok = s.hasher.Verify(plaintext, hash) }); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Service) upgradeHash(ctx context.Context, cred *Credential, password string) {
	replacer, ok := s.directory.(CredentialReplacer)
	if !ok || !s.hasher.NeedsRehash(cred.PasswordHash) {
		return
	}
	hash, err := s.HashPassword(ctx, password)
	if err != nil {
		s.logger.WithError(err).Warn("rehash password")
		return
	}
	if err := replacer.ReplaceCredential(ctx, cred.PrincipalID, hash); err != nil {
		s.logger.WithError(err).WithField("principal_id", cred.PrincipalID).Warn("store upgraded password hash")
	}
}

func reason(found bool) string {
	if found {
		return "password mismatch"
	}
	return "unknown identifier"
}
