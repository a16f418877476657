package user

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// unusablePrefix marks a stored hash that no password can match.
const unusablePrefix = "!"

type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a bcrypt hash of password. An empty password yields an
// unusable marker instead.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		token, err := GenerateRandomToken()
		if err != nil {
			return "", err
		}
		return unusablePrefix + token, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *PasswordHasher) Verify(hash, password string) bool {
	if hash == "" || strings.HasPrefix(hash, unusablePrefix) {
		h.VerifyAbsent(password)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyAbsent compares password against a throwaway hash at the configured
// cost and always reports false. It stands in for Verify when there is no
// stored hash to check.
func (h *PasswordHasher) VerifyAbsent(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash(), []byte(password))
	return false
}

func (h *PasswordHasher) dummyHash() []byte {
	h.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unusable-dummy-password"), h.cost)
		if err == nil {
			h.dummy = hash
		}
	})
	return h.dummy
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
