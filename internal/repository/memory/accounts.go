package memory

import (
	"context"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"

	"github.com/google/uuid"
)

type accountStore struct {
	s *Store
}

func (r *accountStore) Create(_ context.Context, account *entity.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insertLocked(account)
}

func (r *accountStore) CreateWithProfile(_ context.Context, account *entity.Account, profile *entity.AstrologerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.insertLocked(account); err != nil {
		return err
	}
	profile.AccountID = account.ID
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.CreatedAt = r.s.now()
	profile.UpdatedAt = r.s.stamp()
	r.s.profiles = append(r.s.profiles, copyProfile(profile))
	return nil
}

func (r *accountStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.ID == id }), nil
}

func (r *accountStore) FindByUsername(_ context.Context, username string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.Username == username }), nil
}

func (r *accountStore) FindByMobile(_ context.Context, mobile string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool { return a.MobileNumber == mobile }), nil
}

func (r *accountStore) FindByUsernameOrMobile(_ context.Context, username, mobile string) (*entity.Account, error) {
	return r.find(func(a *entity.Account) bool {
		return a.Username == username || a.MobileNumber == mobile
	}), nil
}

func (r *accountStore) insertLocked(account *entity.Account) error {
	for _, existing := range r.s.accounts {
		if existing.Username == account.Username || existing.MobileNumber == account.MobileNumber {
			return repository.ErrConflict
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Role == "" {
		account.Role = entity.RoleUser
	}
	now := r.s.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	stored := *account
	r.s.accounts = append(r.s.accounts, &stored)
	return nil
}

func (r *accountStore) find(match func(*entity.Account) bool) *entity.Account {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, account := range r.s.accounts {
		if match(account) {
			out := *account
			return &out
		}
	}
	return nil
}
