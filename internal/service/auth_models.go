package service

import (
	"time"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
)

// Identity is what a verified token resolves to.
type Identity struct {
	AccountID uuid.UUID
	Username  string
	Role      entity.AccountRole
}

type SignupInput struct {
	Username  string
	Mobile    string
	Role      string
	Password  string
	IPAddress *string
}

type LoginInput struct {
	Identifier string
	Password   string
	IPAddress  *string
}

// AccountView is the public face of an account; it never carries the hash.
type AccountView struct {
	ID           uuid.UUID
	Username     string
	MobileNumber string
	Role         entity.AccountRole
	CreatedAt    time.Time
}

type AuthResult struct {
	Token     string
	ExpiresIn int64
	Account   AccountView
}

func newAccountView(account *entity.Account) AccountView {
	return AccountView{
		ID:           account.ID,
		Username:     account.Username,
		MobileNumber: account.MobileNumber,
		Role:         account.Role,
		CreatedAt:    account.CreatedAt,
	}
}
