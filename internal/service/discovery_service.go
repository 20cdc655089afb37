package service

import (
	"context"
	"fmt"
	"strings"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

type DiscoveryConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type SearchOptions struct {
	IncludeOffline bool
	Query          string
	Sort           string
	Limit          int
	Offset         int
}

// DiscoveryService answers unauthenticated searches over profiles.
type DiscoveryService struct {
	profiles repository.ProfileRepository
	config   DiscoveryConfig
}

func NewDiscoveryService(profiles repository.ProfileRepository, config DiscoveryConfig) *DiscoveryService {
	if config.MaxLimit <= 0 {
		config.MaxLimit = MaxSearchLimit
	}
	if config.DefaultLimit <= 0 || config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = min(DefaultSearchLimit, config.MaxLimit)
	}
	return &DiscoveryService{profiles: profiles, config: config}
}

// Search filters to online profiles unless IncludeOffline is set and matches
// Query case-insensitively against displayName, expertise and languages.
func (s *DiscoveryService) Search(ctx context.Context, options SearchOptions) ([]entity.AstrologerProfile, error) {
	sort, ok := repository.ParseSortOrder(options.Sort)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, options.Sort)
	}
	if options.Offset < 0 || options.Limit < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}

	limit := options.Limit
	if limit == 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	profiles, err := s.profiles.Search(ctx, repository.SearchFilter{
		IncludeOffline: options.IncludeOffline,
		Query:          strings.TrimSpace(options.Query),
		Sort:           sort,
		Limit:          limit,
		Offset:         options.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if profiles == nil {
		profiles = []entity.AstrologerProfile{}
	}
	return profiles, nil
}
