package util

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var legacyHash = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

func GenerateEncrypt(password string) (string, error) {
	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(encrypted), nil
}

// ComparePassword checks password against a bcrypt hash, falling back to
// the unsalted SHA-256 hex digests older accounts were stored with.
func ComparePassword(password, encrypted string) error {
	if IsLegacyHash(encrypted) {
		sum := sha256.Sum256([]byte(password))

		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(encrypted))) == 1 {
			return nil
		}

		return bcrypt.ErrMismatchedHashAndPassword
	}

	return bcrypt.CompareHashAndPassword([]byte(encrypted), []byte(password))
}

func IsLegacyHash(encrypted string) bool {
	return legacyHash.MatchString(encrypted)
}
