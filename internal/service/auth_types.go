package service

import (
	"time"

	"astrotalk/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	// AllowMobilePassword enables the insecure fallback that derives a
	// missing signup password from the last six digits of the mobile number.
	AllowMobilePassword bool
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type TokenIssuer interface {
	IssueToken(account entity.Account) (string, time.Duration, error)
	ParseToken(token string) (Identity, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
