package dto

import (
	"time"

	"astrotalk/internal/entity"
	"astrotalk/internal/service"
)

type ProfileRequest struct {
	DisplayName       *string  `json:"displayName" validate:"omitempty,max=120"`
	Bio               *string  `json:"bio" validate:"omitempty,max=4000"`
	Languages         []string `json:"languages" validate:"omitempty,max=32,dive,max=64"`
	Expertise         []string `json:"expertise" validate:"omitempty,max=32,dive,max=64"`
	PerMinuteCallRate *float64 `json:"perMinuteCallRate" validate:"omitempty,gte=0"`
	PerMinuteChatRate *float64 `json:"perMinuteChatRate" validate:"omitempty,gte=0"`
	IsOnline          bool     `json:"isOnline"`
	IsBusy            bool     `json:"isBusy"`
}

func (r ProfileRequest) Input() service.ProfileInput {
	return service.ProfileInput{
		DisplayName:       r.DisplayName,
		Bio:               r.Bio,
		Languages:         r.Languages,
		Expertise:         r.Expertise,
		PerMinuteCallRate: r.PerMinuteCallRate,
		PerMinuteChatRate: r.PerMinuteChatRate,
		IsOnline:          r.IsOnline,
		IsBusy:            r.IsBusy,
	}
}

type CertificateRequest struct {
	DataURL string `json:"dataUrl" validate:"required"`
}

// StatusRequest changes only the flags present in the body.
type StatusRequest struct {
	IsOnline *bool `json:"isOnline"`
	IsBusy   *bool `json:"isBusy"`
}

type CertificateResponse struct {
	OK             bool   `json:"ok"`
	CertificateURL string `json:"certificateUrl"`
}

type StatusResponse struct {
	IsOnline bool `json:"isOnline"`
	IsBusy   bool `json:"isBusy"`
	Approved bool `json:"approved"`
}

type ProfileUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ProfileResponse is the public shape of a profile. User is present only
// when the account was joined.
type ProfileResponse struct {
	ID                string               `json:"id"`
	AccountID         string               `json:"accountId"`
	User              *ProfileUserResponse `json:"user,omitempty"`
	DisplayName       string               `json:"displayName"`
	Bio               string               `json:"bio"`
	CertificateURL    string               `json:"certificateUrl,omitempty"`
	Languages         []string             `json:"languages"`
	Expertise         []string             `json:"expertise"`
	PerMinuteCallRate float64              `json:"perMinuteCallRate"`
	PerMinuteChatRate float64              `json:"perMinuteChatRate"`
	IsOnline          bool                 `json:"isOnline"`
	IsBusy            bool                 `json:"isBusy"`
	Approved          bool                 `json:"approved"`
	Rating            float64              `json:"rating"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func ProfileResponseFromEntity(profile *entity.AstrologerProfile) ProfileResponse {
	response := ProfileResponse{
		ID:                profile.ID.String(),
		AccountID:         profile.AccountID.String(),
		DisplayName:       profile.DisplayName,
		Bio:               profile.Bio,
		CertificateURL:    profile.CertificateURL,
		Languages:         nonNil(profile.Languages),
		Expertise:         nonNil(profile.Expertise),
		PerMinuteCallRate: profile.PerMinuteCallRate,
		PerMinuteChatRate: profile.PerMinuteChatRate,
		IsOnline:          profile.IsOnline,
		IsBusy:            profile.IsBusy,
		Approved:          profile.Approved,
		Rating:            profile.Rating,
		CreatedAt:         profile.CreatedAt,
		UpdatedAt:         profile.UpdatedAt,
	}
	if profile.Account != nil {
		response.User = &ProfileUserResponse{
			ID:       profile.Account.ID.String(),
			Username: profile.Account.Username,
			Role:     string(profile.Account.Role),
		}
	}
	return response
}

func ProfileResponsesFromEntities(profiles []entity.AstrologerProfile) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, ProfileResponseFromEntity(&profiles[i]))
	}
	return responses
}

func StatusResponseFromEntity(status *entity.ProfileStatus) StatusResponse {
	return StatusResponse{IsOnline: status.IsOnline, IsBusy: status.IsBusy, Approved: status.Approved}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
