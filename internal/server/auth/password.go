package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes one plaintext password for persistent storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword verifies a plaintext candidate against a stored bcrypt hash.
func VerifyPassword(passwordHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
