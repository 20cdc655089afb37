package memory

import (
	"context"
	"sort"
	"strings"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type profileStore struct {
	s *Store
}

func (r *profileStore) Upsert(_ context.Context, input repository.ProfileUpsert) (*entity.AstrologerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	profile := r.s.profileWhere(func(p *entity.AstrologerProfile) bool { return p.AccountID == input.AccountID })
	if profile == nil {
		profile = entity.NewAstrologerProfile(input.AccountID, input.DefaultDisplayName)
		profile.ID = uuid.New()
		profile.CreatedAt = now
		r.s.profiles = append(r.s.profiles, profile)
	}

	fields := input.Fields
	if fields.DisplayName != nil {
		profile.DisplayName = *fields.DisplayName
	}
	if fields.Bio != nil {
		profile.Bio = *fields.Bio
	}
	if fields.Languages != nil {
		profile.Languages = append(datatypes.JSONSlice[string]{}, *fields.Languages...)
	}
	if fields.Expertise != nil {
		profile.Expertise = append(datatypes.JSONSlice[string]{}, *fields.Expertise...)
	}
	if fields.PerMinuteCallRate != nil {
		profile.PerMinuteCallRate = *fields.PerMinuteCallRate
	}
	if fields.PerMinuteChatRate != nil {
		profile.PerMinuteChatRate = *fields.PerMinuteChatRate
	}
	profile.IsOnline = fields.IsOnline
	profile.IsBusy = fields.IsBusy
	profile.UpdatedAt = r.s.stamp()

	return r.s.joined(profile), nil
}

func (r *profileStore) FindByID(_ context.Context, id uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.findJoined(func(p *entity.AstrologerProfile) bool { return p.ID == id }), nil
}

func (r *profileStore) FindByAccountID(_ context.Context, accountID uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.findJoined(func(p *entity.AstrologerProfile) bool { return p.AccountID == accountID }), nil
}

func (r *profileStore) FindStatus(_ context.Context, id uuid.UUID) (*entity.ProfileStatus, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	profile := r.s.profileWhere(func(p *entity.AstrologerProfile) bool { return p.ID == id })
	if profile == nil {
		return nil, nil
	}
	status := profile.Status()
	return &status, nil
}

func (r *profileStore) UpdateStatus(_ context.Context, accountID uuid.UUID, update repository.StatusUpdate) (*entity.AstrologerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profile := r.s.profileWhere(func(p *entity.AstrologerProfile) bool { return p.AccountID == accountID })
	if profile == nil {
		return nil, nil
	}
	if update.IsOnline == nil && update.IsBusy == nil {
		return copyProfile(profile), nil
	}

	isOnline, isBusy := profile.IsOnline, profile.IsBusy
	if update.IsOnline != nil {
		isOnline = *update.IsOnline
	}
	if update.IsBusy != nil {
		isBusy = *update.IsBusy
	}
	if update.RejectBusyOffline && isBusy && !isOnline {
		return nil, repository.ErrBusyWhileOffline
	}
	profile.IsOnline = isOnline
	profile.IsBusy = isBusy
	profile.UpdatedAt = r.s.stamp()
	return copyProfile(profile), nil
}

func (r *profileStore) UpdateCertificateURL(_ context.Context, accountID uuid.UUID, url string) (*entity.AstrologerProfile, error) {
	return r.update(func(p *entity.AstrologerProfile) bool { return p.AccountID == accountID }, func(p *entity.AstrologerProfile) {
		p.CertificateURL = url
	}), nil
}

func (r *profileStore) Approve(_ context.Context, id uuid.UUID) (*entity.AstrologerProfile, error) {
	return r.update(func(p *entity.AstrologerProfile) bool { return p.ID == id }, func(p *entity.AstrologerProfile) {
		p.Approved = true
	}), nil
}

func (r *profileStore) Search(_ context.Context, filter repository.SearchFilter) ([]entity.AstrologerProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]entity.AstrologerProfile, 0)
	for _, profile := range r.s.profiles {
		if !filter.IncludeOffline && !profile.IsOnline {
			continue
		}
		if query != "" && !matchesQuery(profile, query) {
			continue
		}
		matched = append(matched, *r.s.joined(profile))
	}

	sortProfiles(matched, filter.Sort)

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []entity.AstrologerProfile{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *profileStore) findJoined(match func(*entity.AstrologerProfile) bool) *entity.AstrologerProfile {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	profile := r.s.profileWhere(match)
	if profile == nil {
		return nil
	}
	return r.s.joined(profile)
}

// update mirrors UPDATE ... RETURNING: the result carries no joined account.
func (r *profileStore) update(match func(*entity.AstrologerProfile) bool, apply func(*entity.AstrologerProfile)) *entity.AstrologerProfile {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	profile := r.s.profileWhere(match)
	if profile == nil {
		return nil
	}
	apply(profile)
	profile.UpdatedAt = r.s.stamp()
	return copyProfile(profile)
}

func matchesQuery(profile *entity.AstrologerProfile, query string) bool {
	if strings.Contains(strings.ToLower(profile.DisplayName), query) {
		return true
	}
	for _, value := range profile.Expertise {
		if strings.Contains(strings.ToLower(value), query) {
			return true
		}
	}
	for _, value := range profile.Languages {
		if strings.Contains(strings.ToLower(value), query) {
			return true
		}
	}
	return false
}

// sortProfiles keeps insertion order for SortCreated; the stable sort keeps it
// as the tie-breaker for the other orders.
func sortProfiles(profiles []entity.AstrologerProfile, order repository.SortOrder) {
	var less func(a, b *entity.AstrologerProfile) bool
	switch order {
	case repository.SortRating:
		less = func(a, b *entity.AstrologerProfile) bool { return a.Rating > b.Rating }
	case repository.SortCallRate:
		less = func(a, b *entity.AstrologerProfile) bool { return a.PerMinuteCallRate < b.PerMinuteCallRate }
	case repository.SortChatRate:
		less = func(a, b *entity.AstrologerProfile) bool { return a.PerMinuteChatRate < b.PerMinuteChatRate }
	default:
		return
	}
	sort.SliceStable(profiles, func(i, j int) bool { return less(&profiles[i], &profiles[j]) })
}
