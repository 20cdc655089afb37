package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"astrotalk/internal/service"
)

// MobileNumber accepts either a JSON string or a JSON number and keeps the
// digits as text.
type MobileNumber string

func (m *MobileNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MobileNumber(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("mobile must be a string or a number")
	}
	*m = MobileNumber(n.String())
	return nil
}

type SignupRequest struct {
	Username string       `json:"username" validate:"required,max=100"`
	Mobile   MobileNumber `json:"mobile" validate:"required,number,max=20"`
	Role     string       `json:"role" validate:"omitempty,max=20"`
	Password string       `json:"password" validate:"omitempty,max=72"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Mobile    string    `json:"mobile"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expiresIn"`
	Account   AccountResponse `json:"account"`
}

func AuthResponseFromResult(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
		Account: AccountResponse{
			ID:        result.Account.ID.String(),
			Username:  result.Account.Username,
			Mobile:    result.Account.MobileNumber,
			Role:      string(result.Account.Role),
			CreatedAt: result.Account.CreatedAt,
		},
	}
}
