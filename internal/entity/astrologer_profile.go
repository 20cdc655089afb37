package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultRating = 5

type AstrologerProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Account   *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	DisplayName    string                      `gorm:"type:varchar(150);not null"`
	Bio            string                      `gorm:"type:text;not null;default:''"`
	CertificateURL string                      `gorm:"type:text;not null;default:''"`
	Languages      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Expertise      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`

	PerMinuteCallRate float64 `gorm:"not null;default:0;check:chk_call_rate,per_minute_call_rate >= 0"`
	PerMinuteChatRate float64 `gorm:"not null;default:0;check:chk_chat_rate,per_minute_chat_rate >= 0"`

	IsOnline bool    `gorm:"not null;default:false;index"`
	IsBusy   bool    `gorm:"not null;default:false"`
	Approved bool    `gorm:"not null;default:false"`
	Rating   float64 `gorm:"not null;default:5;check:chk_rating,rating >= 0 AND rating <= 5"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"default:clock_timestamp()"`
}

// NewAstrologerProfile returns the profile created alongside an astrologer
// account: everything at its default, not approved, offline.
func NewAstrologerProfile(accountID uuid.UUID, displayName string) *AstrologerProfile {
	return &AstrologerProfile{
		AccountID:   accountID,
		DisplayName: displayName,
		Languages:   datatypes.JSONSlice[string]{},
		Expertise:   datatypes.JSONSlice[string]{},
		Rating:      DefaultRating,
	}
}

func (p *AstrologerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Languages == nil {
		p.Languages = datatypes.JSONSlice[string]{}
	}
	if p.Expertise == nil {
		p.Expertise = datatypes.JSONSlice[string]{}
	}
	return nil
}

// ProfileStatus is the polling view of a profile. UpdatedAt orders cache
// writes and is not part of the payload.
type ProfileStatus struct {
	IsOnline  bool      `json:"isOnline"`
	IsBusy    bool      `json:"isBusy"`
	Approved  bool      `json:"approved"`
	UpdatedAt time.Time `json:"-"`
}

func (p *AstrologerProfile) Status() ProfileStatus {
	return ProfileStatus{IsOnline: p.IsOnline, IsBusy: p.IsBusy, Approved: p.Approved, UpdatedAt: p.UpdatedAt}
}
