// Package memory keeps accounts, profiles and audit entries in process
// memory. It honours the same uniqueness and upsert rules as the postgres
// repositories and backs tests and DB_DRIVER=memory runs.
package memory

import (
	"sync"
	"time"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	lastEdit time.Time
	accounts []*entity.Account
	profiles []*entity.AstrologerProfile
	audit    []entity.AuditLog
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Accounts() repository.AccountRepository {
	return &accountStore{s: s}
}

func (s *Store) Profiles() repository.ProfileRepository {
	return &profileStore{s: s}
}

func (s *Store) AuditLogs() repository.AuditLogRepository {
	return &auditStore{s: s}
}

// stamp returns a profile updated_at that is strictly later than any earlier
// one, at microsecond precision like the database. Callers hold mu.
func (s *Store) stamp() time.Time {
	now := s.now().Truncate(time.Microsecond)
	if !now.After(s.lastEdit) {
		now = s.lastEdit.Add(time.Microsecond)
	}
	s.lastEdit = now
	return now
}

// AuditEntries returns a copy of everything logged so far.
func (s *Store) AuditEntries() []entity.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

// ProfileCount reports how many profiles are stored.
func (s *Store) ProfileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *Store) accountByID(id uuid.UUID) *entity.Account {
	for _, account := range s.accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

func (s *Store) profileWhere(match func(*entity.AstrologerProfile) bool) *entity.AstrologerProfile {
	for _, profile := range s.profiles {
		if match(profile) {
			return profile
		}
	}
	return nil
}

// joined copies a stored profile and attaches a copy of its account.
func (s *Store) joined(profile *entity.AstrologerProfile) *entity.AstrologerProfile {
	out := copyProfile(profile)
	if account := s.accountByID(profile.AccountID); account != nil {
		a := *account
		out.Account = &a
	}
	return out
}

func copyProfile(profile *entity.AstrologerProfile) *entity.AstrologerProfile {
	out := *profile
	out.Account = nil
	out.Languages = append(out.Languages[:0:0], profile.Languages...)
	out.Expertise = append(out.Expertise[:0:0], profile.Expertise...)
	return &out
}
