package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

// decoyHash is a throwaway bcrypt hash generated at startup. Login compares
// the supplied password against it when no account exists, so "account not
// found" and "wrong password" cost the same wall-clock time.
var decoyHash = mustGenerateDecoyHash()

func mustGenerateDecoyHash() string {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		panic(fmt.Sprintf("failed to seed decoy hash: %v", err))
	}
	hash, err := bcrypt.GenerateFromPassword(random, BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("failed to generate decoy hash: %v", err))
	}
	return string(hash)
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CompareDecoy burns a full bcrypt comparison against the decoy hash.
// It always fails; callers use it to equalize timing for unknown accounts.
func CompareDecoy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(decoyHash), []byte(password))
}
