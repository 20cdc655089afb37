package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"astrotalk/internal/entity"
	"astrotalk/internal/metrics"
	"astrotalk/internal/repository"
	"astrotalk/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusCache fronts FindStatus for polling clients. Get returns nil, nil on
// a miss. SetIfNewer orders writes by ProfileStatus.UpdatedAt.
type StatusCache interface {
	Get(ctx context.Context, profileID uuid.UUID) (*entity.ProfileStatus, error)
	SetIfAbsent(ctx context.Context, profileID uuid.UUID, status entity.ProfileStatus) (bool, error)
	SetIfNewer(ctx context.Context, profileID uuid.UUID, status entity.ProfileStatus) (bool, error)
	Delete(ctx context.Context, profileID uuid.UUID) error
}

type ProfileConfig struct {
	// RejectBusyWhileOffline turns isBusy=true with isOnline=false into
	// ErrInvalidInput. Off by default: the combination is representable.
	RejectBusyWhileOffline bool
	MaxCertificateBytes    int64
}

// ProfileInput is the payload of UpsertOwnProfile. Nil fields keep their
// stored value; the status flags are always written.
type ProfileInput struct {
	DisplayName       *string
	Bio               *string
	Languages         []string
	Expertise         []string
	PerMinuteCallRate *float64
	PerMinuteChatRate *float64
	IsOnline          bool
	IsBusy            bool
}

type ProfileService struct {
	profiles     repository.ProfileRepository
	auditLogs    repository.AuditLogRepository
	certificates storage.CertificateStore
	statusCache  StatusCache
	metrics      *metrics.Metrics
	logger       logrus.FieldLogger
	clock        Clock
	config       ProfileConfig
}

func NewProfileService(
	profiles repository.ProfileRepository,
	auditLogs repository.AuditLogRepository,
	certificates storage.CertificateStore,
	statusCache StatusCache,
	metrics *metrics.Metrics,
	logger logrus.FieldLogger,
	clock Clock,
	config ProfileConfig,
) *ProfileService {
	if logger == nil {
		logger = discardLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &ProfileService{
		profiles:     profiles,
		auditLogs:    auditLogs,
		certificates: certificates,
		statusCache:  statusCache,
		metrics:      metrics,
		logger:       logger,
		clock:        clock,
		config:       config,
	}
}

// UpsertOwnProfile creates the caller's profile or replaces the supplied
// fields on the existing one, atomically.
func (s *ProfileService) UpsertOwnProfile(ctx context.Context, identity Identity, input ProfileInput) (*entity.AstrologerProfile, error) {
	if err := authorize(identity, entity.RoleAstrologer); err != nil {
		return nil, err
	}
	fields, err := s.profileFields(input)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Upsert(ctx, repository.ProfileUpsert{
		AccountID:          identity.AccountID,
		DefaultDisplayName: identity.Username,
		Fields:             fields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile vanished after upsert", ErrStorageFailure)
	}

	s.cacheStatus(ctx, profile)
	recordAudit(ctx, s.auditLogs, s.logger, &identity.AccountID, nil, entity.AuditProfileUpdated, map[string]any{"profile_id": profile.ID})
	return profile, nil
}

// UploadCertificate stores the image and points the caller's profile at it.
// A file stored for a profile write that then fails is left in place.
func (s *ProfileService) UploadCertificate(ctx context.Context, identity Identity, dataURL string) (string, error) {
	if err := authorize(identity, entity.RoleAstrologer); err != nil {
		return "", err
	}

	image, err := storage.ParseImageDataURL(dataURL, s.config.MaxCertificateBytes)
	if err != nil {
		s.metrics.CertificateUpload("rejected")
		if errors.Is(err, storage.ErrTooLarge) {
			return "", fmt.Errorf("%w: image is too large", ErrInvalidInput)
		}
		return "", fmt.Errorf("%w: invalid image", ErrInvalidInput)
	}
	if s.certificates == nil {
		return "", fmt.Errorf("%w: certificate storage is not configured", ErrStorageFailure)
	}

	name := storage.CertificateFileName(identity.AccountID, s.clock.Now(), image.ContentType)
	url, err := s.certificates.Save(ctx, name, image.ContentType, image.Data)
	if err != nil {
		s.metrics.CertificateUpload("failed")
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	profile, err := s.profiles.UpdateCertificateURL(ctx, identity.AccountID, url)
	if err != nil || profile == nil {
		s.metrics.CertificateUpload("orphaned")
		s.logger.WithFields(logrus.Fields{
			"account_id":  identity.AccountID,
			"certificate": url,
		}).WithError(err).Warn("certificate stored but profile not updated")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		return "", fmt.Errorf("%w: astrologer profile not found", ErrNotFound)
	}

	s.metrics.CertificateUpload("stored")
	recordAudit(ctx, s.auditLogs, s.logger, &identity.AccountID, nil, entity.AuditCertificateUploaded, map[string]any{"certificate_url": url})
	return profile.CertificateURL, nil
}

// SetStatus updates the online and busy flags of the caller's profile. A nil
// flag keeps its stored value.
func (s *ProfileService) SetStatus(ctx context.Context, identity Identity, isOnline, isBusy *bool) (*entity.AstrologerProfile, error) {
	if err := authorize(identity, entity.RoleAstrologer); err != nil {
		return nil, err
	}
	if isOnline == nil && isBusy == nil {
		return nil, fmt.Errorf("%w: isOnline or isBusy is required", ErrInvalidInput)
	}
	if isOnline != nil && isBusy != nil {
		if err := s.checkStatus(*isOnline, *isBusy); err != nil {
			return nil, err
		}
	}

	profile, err := s.profiles.UpdateStatus(ctx, identity.AccountID, repository.StatusUpdate{
		IsOnline:          isOnline,
		IsBusy:            isBusy,
		RejectBusyOffline: s.config.RejectBusyWhileOffline,
	})
	if errors.Is(err, repository.ErrBusyWhileOffline) {
		return nil, fmt.Errorf("%w: cannot be busy while offline", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: astrologer profile not found", ErrNotFound)
	}

	s.cacheStatus(ctx, profile)
	s.metrics.StatusChanged(profile.IsOnline)
	recordAudit(ctx, s.auditLogs, s.logger, &identity.AccountID, nil, entity.AuditStatusChanged, map[string]any{
		"is_online": profile.IsOnline,
		"is_busy":   profile.IsBusy,
	})
	return profile, nil
}

// Approve marks a profile approved. Approving twice is not an error.
func (s *ProfileService) Approve(ctx context.Context, identity Identity, profileID uuid.UUID) (*entity.AstrologerProfile, error) {
	if err := authorize(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Approve(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: astrologer profile not found", ErrNotFound)
	}

	s.cacheStatus(ctx, profile)
	s.metrics.Approved()
	recordAudit(ctx, s.auditLogs, s.logger, &identity.AccountID, nil, entity.AuditProfileApproved, map[string]any{"profile_id": profileID})
	return profile, nil
}

func (s *ProfileService) GetByID(ctx context.Context, profileID uuid.UUID) (*entity.AstrologerProfile, error) {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: astrologer profile not found", ErrNotFound)
	}
	return profile, nil
}

// GetStatus is the polling read. Cache errors fall through to the store.
func (s *ProfileService) GetStatus(ctx context.Context, profileID uuid.UUID) (*entity.ProfileStatus, error) {
	if s.statusCache != nil {
		cached, err := s.statusCache.Get(ctx, profileID)
		if err != nil {
			s.logger.WithError(err).WithField("profile_id", profileID).Warn("status cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	status, err := s.profiles.FindStatus(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if status == nil {
		return nil, fmt.Errorf("%w: astrologer profile not found", ErrNotFound)
	}

	// Only fill a miss: a write that landed after the read above has already
	// stored a newer entry.
	if s.statusCache != nil {
		if _, err := s.statusCache.SetIfAbsent(ctx, profileID, *status); err != nil {
			s.logger.WithError(err).WithField("profile_id", profileID).Warn("status cache fill failed")
		}
	}
	return status, nil
}

func (s *ProfileService) profileFields(input ProfileInput) (repository.ProfileFields, error) {
	fields := repository.ProfileFields{
		Bio:               input.Bio,
		PerMinuteCallRate: input.PerMinuteCallRate,
		PerMinuteChatRate: input.PerMinuteChatRate,
		IsOnline:          input.IsOnline,
		IsBusy:            input.IsBusy,
	}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return fields, fmt.Errorf("%w: displayName must not be empty", ErrInvalidInput)
		}
		fields.DisplayName = &name
	}
	if input.PerMinuteCallRate != nil && *input.PerMinuteCallRate < 0 {
		return fields, fmt.Errorf("%w: perMinuteCallRate must not be negative", ErrInvalidInput)
	}
	if input.PerMinuteChatRate != nil && *input.PerMinuteChatRate < 0 {
		return fields, fmt.Errorf("%w: perMinuteChatRate must not be negative", ErrInvalidInput)
	}
	if input.Languages != nil {
		languages := normalizeTags(input.Languages)
		fields.Languages = &languages
	}
	if input.Expertise != nil {
		expertise := normalizeTags(input.Expertise)
		fields.Expertise = &expertise
	}
	if err := s.checkStatus(input.IsOnline, input.IsBusy); err != nil {
		return fields, err
	}
	return fields, nil
}

func (s *ProfileService) checkStatus(isOnline, isBusy bool) error {
	if s.config.RejectBusyWhileOffline && isBusy && !isOnline {
		return fmt.Errorf("%w: cannot be busy while offline", ErrInvalidInput)
	}
	return nil
}

func (s *ProfileService) cacheStatus(ctx context.Context, profile *entity.AstrologerProfile) {
	if s.statusCache == nil {
		return
	}
	_, err := s.statusCache.SetIfNewer(ctx, profile.ID, profile.Status())
	if err == nil {
		return
	}
	s.logger.WithError(err).WithField("profile_id", profile.ID).Warn("status cache write failed")
	// A stale entry would outlive the write; drop it instead.
	if err := s.statusCache.Delete(ctx, profile.ID); err != nil {
		s.logger.WithError(err).WithField("profile_id", profile.ID).Warn("status cache evict failed")
	}
}

// normalizeTags trims entries, drops blanks and repeats, and keeps order.
// Repeats are compared case-insensitively.
func normalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
