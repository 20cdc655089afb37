package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type JWTManager struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
	Now      func() time.Time
}

type AccessClaims struct {
	AccountID string `json:"sub"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (m JWTManager) IssueAccessToken(accountID, username, role string) (string, time.Duration, error) {
	if len(m.Secret) == 0 {
		return "", 0, ErrMissingSecret
	}
	ttl := m.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	now := m.now()
	claims := AccessClaims{
		AccountID: accountID,
		Username:  username,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.Secret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

// ParseAccessToken validates signature, algorithm and expiry. Every failure is
// reported as ErrInvalidToken.
func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	if len(m.Secret) == 0 {
		return nil, ErrInvalidToken
	}
	options := []jwt.ParserOption{jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired()}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	}, options...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m JWTManager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
