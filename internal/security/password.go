package security

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/moodsync/server/internal/errs"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

type BcryptConfig struct {
	Cost      int
	MinLength int
}

func (c *BcryptConfig) minLength() int {
	if c != nil && c.MinLength > 0 {
		return c.MinLength
	}
	return 8
}

// CheckStrength requires min length plus upper, lower, digit and a special character.
// Passwords over 72 bytes are rejected since bcrypt cannot hash them.
func CheckStrength(plain string, cfg *BcryptConfig) error {
	if len(plain) < cfg.minLength() {
		return errs.ErrPasswordTooShort
	}
	if len(plain) > maxPasswordBytes {
		return errs.ErrPasswordTooLong
	}
	var upper, lower, digit, special bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errs.ErrPasswordWeak
	}
	return nil
}

func HashPassword(plain string, cfg *BcryptConfig) (string, error) {
	if err := CheckStrength(plain, cfg); err != nil {
		return "", err
	}

	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.Cost > 0 {
		cost = cfg.Cost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
