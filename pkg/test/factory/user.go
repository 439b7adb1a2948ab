package factory

import (
	fab "github.com/Goldziher/fabricator"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain text behind generated EncryptedPassword values.
const DefaultPassword = "password123"

func NewUser[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	overrides := merge(nil, customData...)

	if _, exists := overrides["EncryptedPassword"]; !exists {
		encryptedPassword, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		overrides["EncryptedPassword"] = string(encryptedPassword)
	}

	return instance.Build(overrides)
}
