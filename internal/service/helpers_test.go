package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"
	"astrotalk/internal/repository/memory"
	"astrotalk/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeCertificateStore struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (f *fakeCertificateStore) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = data
	return "/uploads/" + name, nil
}

type fakeStatusCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]entity.ProfileStatus
	getErr  error
	gets    int
}

func newFakeStatusCache() *fakeStatusCache {
	return &fakeStatusCache{entries: map[uuid.UUID]entity.ProfileStatus{}}
}

func (f *fakeStatusCache) Get(_ context.Context, id uuid.UUID) (*entity.ProfileStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	status, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

func (f *fakeStatusCache) SetIfAbsent(_ context.Context, id uuid.UUID, status entity.ProfileStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; ok {
		return false, nil
	}
	f.entries[id] = status
	return true, nil
}

func (f *fakeStatusCache) SetIfNewer(_ context.Context, id uuid.UUID, status entity.ProfileStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if current, ok := f.entries[id]; ok && !status.UpdatedAt.After(current.UpdatedAt) {
		return false, nil
	}
	f.entries[id] = status
	return true, nil
}

// pausingProfiles holds FindStatus after its read until release is closed, so
// a test can land a write between the read and the cache fill.
type pausingProfiles struct {
	repository.ProfileRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingProfiles(profiles repository.ProfileRepository) *pausingProfiles {
	return &pausingProfiles{
		ProfileRepository: profiles,
		read:              make(chan struct{}),
		release:           make(chan struct{}),
	}
}

func (p *pausingProfiles) FindStatus(ctx context.Context, id uuid.UUID) (*entity.ProfileStatus, error) {
	status, err := p.ProfileRepository.FindStatus(ctx, id)
	paused := false
	p.once.Do(func() { paused = true })
	if paused {
		close(p.read)
		<-p.release
	}
	return status, err
}

func (f *fakeStatusCache) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeStatusCache) entry(id uuid.UUID) (entity.ProfileStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.entries[id]
	return status, ok
}

type testEnv struct {
	store     *memory.Store
	auth      *AuthService
	profiles  *ProfileService
	discovery *DiscoveryService
	certs     *fakeCertificateStore
	cache     *fakeStatusCache
}

type envOptions struct {
	auth    AuthConfig
	profile ProfileConfig
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	store := memory.New()
	clock := fixedClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := JWTTokenIssuer{Manager: &utils.JWTManager{
		Secret:   []byte("test-secret"),
		Issuer:   "astrotalk-test",
		TokenTTL: time.Hour,
	}}
	certs := &fakeCertificateStore{}
	cache := newFakeStatusCache()

	return &testEnv{
		store:     store,
		auth:      NewAuthService(store.Accounts(), store.AuditLogs(), BcryptPasswordHasher{Cost: bcrypt.MinCost}, tokens, nil, nil, opts.auth),
		profiles:  NewProfileService(store.Profiles(), store.AuditLogs(), certs, cache, nil, nil, clock, opts.profile),
		discovery: NewDiscoveryService(store.Profiles(), DiscoveryConfig{}),
		certs:     certs,
		cache:     cache,
	}
}

func (e *testEnv) signup(t *testing.T, username, mobile, role string) Identity {
	t.Helper()
	result, err := e.auth.Signup(context.Background(), SignupInput{
		Username: username,
		Mobile:   mobile,
		Role:     role,
		Password: "secret-" + username,
	})
	require.NoError(t, err)
	identity, err := e.auth.Verify(result.Token)
	require.NoError(t, err)
	return identity
}

func (e *testEnv) profileOf(t *testing.T, identity Identity) *entity.AstrologerProfile {
	t.Helper()
	profile, err := e.store.Profiles().FindByAccountID(context.Background(), identity.AccountID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	return profile
}
