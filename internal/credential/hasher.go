// Package credential turns plaintext passwords into stored hashes and checks them.
package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnavailable means the hashing primitive itself could not run.
	ErrUnavailable = errors.New("credential subsystem unavailable")
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// bcrypt ignores input beyond 72 bytes.
const maxBcryptInput = 72

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, storedHash string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a self-salted bcrypt hash; two calls with the same input differ.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(hash), nil
}

// Verify never errors: a wrong password and a malformed hash are both false.
func (h *BcryptHasher) Verify(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), prepare(plaintext)) == nil
}

// prepare digests inputs over bcrypt's limit so long passwords sharing a
// 72-byte prefix do not verify against each other.
func prepare(plaintext string) []byte {
	if len(plaintext) <= maxBcryptInput {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
