package repository

import (
	"context"
	"errors"
	"fmt"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	CreateWithProfile(ctx context.Context, account *entity.Account, profile *entity.AstrologerProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByUsername(ctx context.Context, username string) (*entity.Account, error)
	FindByMobile(ctx context.Context, mobile string) (*entity.Account, error)
	FindByUsernameOrMobile(ctx context.Context, username, mobile string) (*entity.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// CreateWithProfile stores the account and its profile in one transaction.
func (r *accountRepository) CreateWithProfile(ctx context.Context, account *entity.Account, profile *entity.AstrologerProfile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		profile.AccountID = account.ID
		return tx.Omit("Account", "UpdatedAt").Create(profile).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create account with profile: %w", err)
	}
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *accountRepository) FindByMobile(ctx context.Context, mobile string) (*entity.Account, error) {
	return r.first(ctx, "mobile_number = ?", mobile)
}

func (r *accountRepository) FindByUsernameOrMobile(ctx context.Context, username, mobile string) (*entity.Account, error) {
	return r.first(ctx, "username = ? OR mobile_number = ?", username, mobile)
}

func (r *accountRepository) first(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).
		Where(query, args...).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}
