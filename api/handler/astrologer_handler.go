package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"astrotalk/api/middleware"
	"astrotalk/internal/dto"
	"astrotalk/internal/entity"
	"astrotalk/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ProfileService interface {
	UpsertOwnProfile(ctx context.Context, identity service.Identity, input service.ProfileInput) (*entity.AstrologerProfile, error)
	UploadCertificate(ctx context.Context, identity service.Identity, dataURL string) (string, error)
	SetStatus(ctx context.Context, identity service.Identity, isOnline, isBusy *bool) (*entity.AstrologerProfile, error)
	Approve(ctx context.Context, identity service.Identity, profileID uuid.UUID) (*entity.AstrologerProfile, error)
	GetByID(ctx context.Context, profileID uuid.UUID) (*entity.AstrologerProfile, error)
	GetStatus(ctx context.Context, profileID uuid.UUID) (*entity.ProfileStatus, error)
}

type DiscoveryService interface {
	Search(ctx context.Context, options service.SearchOptions) ([]entity.AstrologerProfile, error)
}

type AstrologerHandler struct {
	Profiles  ProfileService
	Discovery DiscoveryService
	Validate  *validator.Validate
}

func NewAstrologerHandler(profiles ProfileService, discovery DiscoveryService, validate *validator.Validate) *AstrologerHandler {
	return &AstrologerHandler{Profiles: profiles, Discovery: discovery, Validate: validate}
}

// List serves GET /astrologers. Any non-empty "all" other than false/0 shows
// offline profiles too.
func (h *AstrologerHandler) List(c echo.Context) error {
	options := service.SearchOptions{
		IncludeOffline: truthy(c.QueryParam("all")),
		Query:          c.QueryParam("q"),
		Sort:           c.QueryParam("sort"),
	}
	var err error
	if options.Limit, err = queryInt(c, "limit"); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if options.Offset, err = queryInt(c, "offset"); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	profiles, err := h.Discovery.Search(c.Request().Context(), options)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProfileResponsesFromEntities(profiles))
}

func (h *AstrologerHandler) Get(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusNotFound, errors.New("astrologer profile not found"))
	}
	profile, err := h.Profiles.GetByID(c.Request().Context(), profileID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProfileResponseFromEntity(profile))
}

func (h *AstrologerHandler) Status(c echo.Context) error {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusNotFound, errors.New("astrologer profile not found"))
	}
	status, err := h.Profiles.GetStatus(c.Request().Context(), profileID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.StatusResponseFromEntity(status))
}

func (h *AstrologerHandler) UpsertMe(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.ProfileRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	profile, err := h.Profiles.UpsertOwnProfile(c.Request().Context(), identity, req.Input())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProfileResponseFromEntity(profile))
}

func (h *AstrologerHandler) UploadCertificate(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.CertificateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	url, err := h.Profiles.UploadCertificate(c.Request().Context(), identity, req.DataURL)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.CertificateResponse{OK: true, CertificateURL: url})
}

func (h *AstrologerHandler) SetStatus(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	var req dto.StatusRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	profile, err := h.Profiles.SetStatus(c.Request().Context(), identity, req.IsOnline, req.IsBusy)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProfileResponseFromEntity(profile))
}

func (h *AstrologerHandler) Approve(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusNotFound, errors.New("astrologer profile not found"))
	}
	profile, err := h.Profiles.Approve(c.Request().Context(), identity, profileID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ProfileResponseFromEntity(profile))
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return value, nil
}
