package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	Upsert(ctx context.Context, input ProfileUpsert) (*entity.AstrologerProfile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AstrologerProfile, error)
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.AstrologerProfile, error)
	FindStatus(ctx context.Context, id uuid.UUID) (*entity.ProfileStatus, error)
	UpdateStatus(ctx context.Context, accountID uuid.UUID, update StatusUpdate) (*entity.AstrologerProfile, error)
	UpdateCertificateURL(ctx context.Context, accountID uuid.UUID, url string) (*entity.AstrologerProfile, error)
	Approve(ctx context.Context, id uuid.UUID) (*entity.AstrologerProfile, error)
	Search(ctx context.Context, filter SearchFilter) ([]entity.AstrologerProfile, error)
}

// dbNow stamps updated_at from the database clock. clock_timestamp advances
// within a transaction, so rows updated later in lock order never get an
// earlier stamp than the write they waited on.
var dbNow = gorm.Expr("clock_timestamp()")

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Upsert creates or updates the profile owned by input.AccountID with a single
// INSERT ... ON CONFLICT (account_id) DO UPDATE statement. Only the supplied
// columns and the status flags are overwritten on conflict.
func (r *profileRepository) Upsert(ctx context.Context, input ProfileUpsert) (*entity.AstrologerProfile, error) {
	profile, columns := buildUpsertRow(input)
	updates := append(clause.AssignmentColumns(columns), clause.Assignment{
		Column: clause.Column{Name: "updated_at"},
		Value:  dbNow,
	})

	err := r.db.WithContext(ctx).
		Omit("Account", "UpdatedAt").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: updates,
		}).
		Create(profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return r.FindByAccountID(ctx, input.AccountID)
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *profileRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.first(ctx, "account_id = ?", accountID)
}

func (r *profileRepository) FindStatus(ctx context.Context, id uuid.UUID) (*entity.ProfileStatus, error) {
	var status entity.ProfileStatus
	res := r.db.WithContext(ctx).
		Model(&entity.AstrologerProfile{}).
		Select("is_online", "is_busy", "approved", "updated_at").
		Where("id = ?", id).
		Limit(1).
		Scan(&status)
	if res.Error != nil {
		return nil, fmt.Errorf("find profile status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &status, nil
}

// UpdateStatus writes the supplied flags. The busy-while-offline rule is part
// of the WHERE clause when only one flag is supplied, so it holds against
// concurrent writers.
func (r *profileRepository) UpdateStatus(ctx context.Context, accountID uuid.UUID, update StatusUpdate) (*entity.AstrologerProfile, error) {
	values := map[string]any{}
	if update.IsOnline != nil {
		values["is_online"] = *update.IsOnline
	}
	if update.IsBusy != nil {
		values["is_busy"] = *update.IsBusy
	}
	if len(values) == 0 {
		return r.FindByAccountID(ctx, accountID)
	}

	guard, err := statusGuard(update)
	if err != nil {
		return nil, err
	}
	if guard == "" {
		return r.updateReturning(ctx, "account_id = ?", accountID, values)
	}

	profile, err := r.updateReturning(ctx, "account_id = ? AND "+guard, accountID, values)
	if err != nil || profile != nil {
		return profile, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.AstrologerProfile{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count profile: %w", err)
	}
	if count > 0 {
		return nil, ErrBusyWhileOffline
	}
	return nil, nil
}

func (r *profileRepository) UpdateCertificateURL(ctx context.Context, accountID uuid.UUID, url string) (*entity.AstrologerProfile, error) {
	return r.updateReturning(ctx, "account_id = ?", accountID, map[string]any{
		"certificate_url": url,
	})
}

func (r *profileRepository) Approve(ctx context.Context, id uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.updateReturning(ctx, "id = ?", id, map[string]any{
		"approved": true,
	})
}

func (r *profileRepository) Search(ctx context.Context, filter SearchFilter) ([]entity.AstrologerProfile, error) {
	query := r.db.WithContext(ctx).Preload("Account")
	if !filter.IncludeOffline {
		query = query.Where("is_online = ?", true)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query = query.Where(`(display_name ILIKE ?
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(expertise) AS e(value) WHERE e.value ILIKE ?)
			OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(languages) AS l(value) WHERE l.value ILIKE ?))`,
			pattern, pattern, pattern)
	}
	for _, order := range orderColumns(filter.Sort) {
		query = query.Order(order)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var profiles []entity.AstrologerProfile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) first(ctx context.Context, query string, args ...any) (*entity.AstrologerProfile, error) {
	var profile entity.AstrologerProfile
	err := r.db.WithContext(ctx).
		Preload("Account").
		Where(query, args...).
		First(&profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// updateReturning applies values with UPDATE ... RETURNING so the caller gets
// the written row without a second read.
func (r *profileRepository) updateReturning(ctx context.Context, query string, arg any, values map[string]any) (*entity.AstrologerProfile, error) {
	values["updated_at"] = dbNow

	var profiles []entity.AstrologerProfile
	res := r.db.WithContext(ctx).
		Model(&profiles).
		Clauses(clause.Returning{}).
		Where(query, arg).
		Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 || len(profiles) == 0 {
		return nil, nil
	}
	return &profiles[0], nil
}

func buildUpsertRow(input ProfileUpsert) (*entity.AstrologerProfile, []string) {
	profile := entity.NewAstrologerProfile(input.AccountID, input.DefaultDisplayName)
	columns := []string{"is_online", "is_busy"}

	fields := input.Fields
	if fields.DisplayName != nil {
		profile.DisplayName = *fields.DisplayName
		columns = append(columns, "display_name")
	}
	if fields.Bio != nil {
		profile.Bio = *fields.Bio
		columns = append(columns, "bio")
	}
	if fields.Languages != nil {
		profile.Languages = datatypes.JSONSlice[string](cloneStrings(*fields.Languages))
		columns = append(columns, "languages")
	}
	if fields.Expertise != nil {
		profile.Expertise = datatypes.JSONSlice[string](cloneStrings(*fields.Expertise))
		columns = append(columns, "expertise")
	}
	if fields.PerMinuteCallRate != nil {
		profile.PerMinuteCallRate = *fields.PerMinuteCallRate
		columns = append(columns, "per_minute_call_rate")
	}
	if fields.PerMinuteChatRate != nil {
		profile.PerMinuteChatRate = *fields.PerMinuteChatRate
		columns = append(columns, "per_minute_chat_rate")
	}
	profile.IsOnline = fields.IsOnline
	profile.IsBusy = fields.IsBusy
	return profile, columns
}

// statusGuard returns the row condition that keeps a single-flag update from
// producing busy-while-offline, or ErrBusyWhileOffline when both flags are
// supplied and already violate it.
func statusGuard(update StatusUpdate) (string, error) {
	if !update.RejectBusyOffline {
		return "", nil
	}
	switch {
	case update.IsOnline != nil && update.IsBusy != nil:
		if *update.IsBusy && !*update.IsOnline {
			return "", ErrBusyWhileOffline
		}
		return "", nil
	case update.IsBusy != nil && *update.IsBusy:
		return "is_online = true", nil
	case update.IsOnline != nil && !*update.IsOnline:
		return "is_busy = false", nil
	}
	return "", nil
}

func orderColumns(sort SortOrder) []string {
	switch sort {
	case SortRating:
		return []string{"rating DESC", "created_at ASC", "id ASC"}
	case SortCallRate:
		return []string{"per_minute_call_rate ASC", "created_at ASC", "id ASC"}
	case SortChatRate:
		return []string{"per_minute_chat_rate ASC", "created_at ASC", "id ASC"}
	default:
		return []string{"created_at ASC", "id ASC"}
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func cloneStrings(values []string) []string {
	out := make([]string, 0, len(values))
	return append(out, values...)
}
