package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRole string

const (
	RoleUser       AccountRole = "user"
	RoleAstrologer AccountRole = "astrologer"
	RoleAdmin      AccountRole = "admin"
)

// ParseAccountRole maps a raw role name onto the closed role set. An empty
// name resolves to RoleUser.
func ParseAccountRole(value string) (AccountRole, bool) {
	switch AccountRole(value) {
	case "":
		return RoleUser, true
	case RoleUser, RoleAstrologer, RoleAdmin:
		return AccountRole(value), true
	}
	return "", false
}

type Account struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string      `gorm:"type:varchar(100);uniqueIndex;not null"`
	MobileNumber string      `gorm:"type:varchar(20);uniqueIndex;not null"`
	PasswordHash string      `gorm:"type:text;not null"`
	Role         AccountRole `gorm:"type:varchar(20);default:'user';not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
