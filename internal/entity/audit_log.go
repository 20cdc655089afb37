package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditSignup              AuditAction = "signup"
	AuditLoginSuccess        AuditAction = "login_success"
	AuditLoginFailed         AuditAction = "login_failed"
	AuditProfileUpdated      AuditAction = "profile_updated"
	AuditStatusChanged       AuditAction = "status_changed"
	AuditCertificateUploaded AuditAction = "certificate_uploaded"
	AuditProfileApproved     AuditAction = "profile_approved"
)

type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	AccountID *uuid.UUID `gorm:"type:uuid;index"`
	Account   *Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:SET NULL"`

	IPAddress *string     `gorm:"type:varchar(45)"`
	Action    AuditAction `gorm:"type:varchar(40);not null;index"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
