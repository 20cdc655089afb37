package service

import (
	"time"

	"astrotalk/internal/entity"
	"astrotalk/internal/utils"

	"github.com/google/uuid"
)

type JWTTokenIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTTokenIssuer) IssueToken(account entity.Account) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, utils.ErrMissingSecret
	}
	return j.Manager.IssueAccessToken(account.ID.String(), account.Username, string(account.Role))
}

func (j JWTTokenIssuer) ParseToken(token string) (Identity, error) {
	if j.Manager == nil {
		return Identity{}, ErrUnauthorized
	}
	claims, err := j.Manager.ParseAccessToken(token)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	role, ok := entity.ParseAccountRole(claims.Role)
	if !ok || claims.Role == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{AccountID: accountID, Username: claims.Username, Role: role}, nil
}
