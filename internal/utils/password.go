package utils

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderio/tourhub/internal/apperr"
)

// maxPasswordBytes is bcrypt's input ceiling. Some implementations silently
// truncate longer input, so it is rejected up front instead.
const maxPasswordBytes = 72

// HashPassword derives a bcrypt hash of plain. A cost outside bcrypt's valid
// range falls back to the library default, so a misconfigured work factor
// degrades instead of failing every sign-up.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", apperr.New(apperr.Validation, "password must be at most 72 characters")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", apperr.Internalf(err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash. A
// malformed or empty hash reads the same as a mismatch; login must not leak
// which one it was.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
