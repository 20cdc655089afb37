package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func displayNames(t *testing.T, env *testEnv, options SearchOptions) []string {
	t.Helper()
	profiles, err := env.discovery.Search(context.Background(), options)
	require.NoError(t, err)
	names := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		names = append(names, profile.DisplayName)
	}
	return names
}

func TestDiscoveryService_SignupThenGoOnline(t *testing.T) {
	env := newTestEnv(t, envOptions{auth: AuthConfig{AllowMobilePassword: true}})
	ctx := context.Background()

	result, err := env.auth.Signup(ctx, SignupInput{Username: "raj", Mobile: "9998887776", Role: "astrologer"})
	require.NoError(t, err)
	raj, err := env.auth.Verify(result.Token)
	require.NoError(t, err)

	assert.Equal(t, []string{"raj"}, displayNames(t, env, SearchOptions{IncludeOffline: true}))
	assert.Empty(t, displayNames(t, env, SearchOptions{}))

	_, err = env.profiles.SetStatus(ctx, raj, boolPtr(true), boolPtr(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"raj"}, displayNames(t, env, SearchOptions{}))
}

func TestDiscoveryService_QueryMatchesNameLanguagesAndExpertise(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	seed := []struct {
		username string
		mobile   string
		input    ProfileInput
	}{
		{"anita", "9000000001", ProfileInput{Languages: []string{"Hindi", "English"}, IsOnline: true}},
		{"bala", "9000000002", ProfileInput{Expertise: []string{"Hindi numerology"}, IsOnline: true}},
		{"chetan", "9000000003", ProfileInput{DisplayName: strPtr("Chetan HINDIwala"), IsOnline: false}},
		{"deepa", "9000000004", ProfileInput{Languages: []string{"Tamil"}, Expertise: []string{"Tarot"}, IsOnline: true}},
	}
	for _, s := range seed {
		identity := env.signup(t, s.username, s.mobile, "astrologer")
		_, err := env.profiles.UpsertOwnProfile(ctx, identity, s.input)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"anita", "bala"}, displayNames(t, env, SearchOptions{Query: "hindi"}))
	assert.Equal(t, []string{"anita", "bala", "Chetan HINDIwala"}, displayNames(t, env, SearchOptions{Query: "HinDi", IncludeOffline: true}))
	assert.Equal(t, []string{"deepa"}, displayNames(t, env, SearchOptions{Query: "tarot"}))
	assert.Empty(t, displayNames(t, env, SearchOptions{Query: "kannada", IncludeOffline: true}))
}

func TestDiscoveryService_SortAndPaginate(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	rates := map[string]float64{"anita": 30, "bala": 10, "chetan": 20}
	for i, name := range []string{"anita", "bala", "chetan"} {
		identity := env.signup(t, name, "900000000"+string(rune('1'+i)), "astrologer")
		rate := rates[name]
		_, err := env.profiles.UpsertOwnProfile(ctx, identity, ProfileInput{PerMinuteCallRate: &rate, IsOnline: true})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"bala", "chetan", "anita"}, displayNames(t, env, SearchOptions{Sort: "call_rate"}))
	assert.Equal(t, []string{"chetan"}, displayNames(t, env, SearchOptions{Sort: "call_rate", Limit: 1, Offset: 1}))
	assert.Equal(t, []string{"anita", "bala"}, displayNames(t, env, SearchOptions{Limit: 2}))
	assert.Empty(t, displayNames(t, env, SearchOptions{Offset: 10}))
}

func TestDiscoveryService_InvalidOptions(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	_, err := env.discovery.Search(ctx, SearchOptions{Sort: "popularity"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.discovery.Search(ctx, SearchOptions{Offset: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	profiles, err := env.discovery.Search(ctx, SearchOptions{})
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}

func TestNewDiscoveryService_ClampsLimits(t *testing.T) {
	svc := NewDiscoveryService(nil, DiscoveryConfig{DefaultLimit: 500, MaxLimit: 100})
	assert.Equal(t, 100, svc.config.MaxLimit)
	assert.Equal(t, 50, svc.config.DefaultLimit)

	svc = NewDiscoveryService(nil, DiscoveryConfig{})
	assert.Equal(t, MaxSearchLimit, svc.config.MaxLimit)
	assert.Equal(t, DefaultSearchLimit, svc.config.DefaultLimit)
}
