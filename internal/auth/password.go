package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently ignores input past 72 bytes, so longer passwords are rejected.
const bcryptMaxPasswordBytes = 72

// upper bounds for argon2id parameters read from stored hashes
const (
	argon2MaxMemoryKiB = 1 << 20
	argon2MaxTime      = 16
	argon2MaxKeyLen    = 128
)

// PasswordHasher produces and checks self-describing password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. Unknown or corrupt
	// hash formats never match.
	Verify(plaintext, hash string) bool
	// NeedsRehash reports whether hash was produced with an outdated
	// algorithm or work factor.
	NeedsRehash(hash string) bool
}

// PasswordPolicy bounds plaintext length in bytes. Zero values disable a bound.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// BcryptHasher hashes with bcrypt and also accepts legacy argon2id hashes.
type BcryptHasher struct {
	cost   int
	policy PasswordPolicy
}

func NewBcryptHasher(cost int, policy PasswordPolicy) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if policy.MaxLength <= 0 || policy.MaxLength > bcryptMaxPasswordBytes {
		policy.MaxLength = bcryptMaxPasswordBytes
	}
	return &BcryptHasher{cost: cost, policy: policy}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) < h.policy.MinLength {
		return "", fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, h.policy.MinLength)
	}
	if len(plaintext) > h.policy.MaxLength {
		return "", fmt.Errorf("%w: maximum %d bytes", ErrPasswordTooLong, h.policy.MaxLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	switch {
	case isBcryptHash(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	case strings.HasPrefix(hash, "$argon2id$"):
		return verifyArgon2id(plaintext, hash)
	default:
		return false
	}
}

func (h *BcryptHasher) NeedsRehash(hash string) bool {
	if !isBcryptHash(hash) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < h.cost
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// verifyArgon2id checks a PHC string: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func verifyArgon2id(plaintext, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || memory > argon2MaxMemoryKiB || iterations == 0 || iterations > argon2MaxTime || threads == 0 || threads > 255 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > argon2MaxKeyLen {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), salt, iterations, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
