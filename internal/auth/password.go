package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordTooLong = errors.New("password must be 72 bytes or fewer")

type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcrypt.DefaultCost}
}

// NewPasswordServiceWithCost is meant for tests, where bcrypt.MinCost keeps
// hashing fast.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(plaintext string) (string, error) {
	// bcrypt ignores everything past 72 bytes
	if len(plaintext) > 72 {
		return "", errPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether plaintext hashes to hash.
func (p *PasswordService) Matches(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
