package auth

import (
	"unicode"

	"ms-backoffice/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ValidatePassword requires at least 8 characters with one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Invalid("password", "password must be at least 8 characters")
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return apperr.Invalid("password", "password must contain a letter and a digit")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
