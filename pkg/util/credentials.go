package util

import (
	"golang.org/x/crypto/bcrypt"
)

// HashCredential returns the bcrypt hash of credential
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
