package service

import (
	"context"
	"testing"

	"astrotalk/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignupAstrologerCreatesDefaultProfile(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	result, err := env.auth.Signup(context.Background(), SignupInput{
		Username: "raj",
		Mobile:   "9998887776",
		Role:     "astrologer",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, entity.RoleAstrologer, result.Account.Role)
	assert.Equal(t, "9998887776", result.Account.MobileNumber)

	profile, err := env.store.Profiles().FindByAccountID(context.Background(), result.Account.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "raj", profile.DisplayName)
	assert.False(t, profile.Approved)
	assert.False(t, profile.IsOnline)
	assert.Equal(t, float64(entity.DefaultRating), profile.Rating)
	require.NotNil(t, profile.Account)
	assert.Equal(t, "raj", profile.Account.Username)

	entries := env.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditSignup, entries[0].Action)
}

func TestAuthService_SignupUserHasNoProfile(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	identity := env.signup(t, "asha", "9000000001", "")
	assert.Equal(t, entity.RoleUser, identity.Role)
	assert.Equal(t, 0, env.store.ProfileCount())
}

func TestAuthService_SignupRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.signup(t, "raj", "9998887776", "astrologer")

	_, err := env.auth.Signup(context.Background(), SignupInput{Username: "raj", Mobile: "1234567890", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.auth.Signup(context.Background(), SignupInput{Username: "other", Mobile: "9998887776", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, 1, env.store.ProfileCount())
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input SignupInput
	}{
		{name: "missing username", input: SignupInput{Mobile: "9998887776", Password: "pw"}},
		{name: "missing mobile", input: SignupInput{Username: "raj", Password: "pw"}},
		{name: "non digit mobile", input: SignupInput{Username: "raj", Mobile: "99-98", Password: "pw"}},
		{name: "unknown role", input: SignupInput{Username: "raj", Mobile: "9998887776", Role: "guru", Password: "pw"}},
		{name: "missing password", input: SignupInput{Username: "raj", Mobile: "9998887776"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAuthService_MobilePasswordFallback(t *testing.T) {
	env := newTestEnv(t, envOptions{auth: AuthConfig{AllowMobilePassword: true}})
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, SignupInput{Username: "raj", Mobile: "9998887776", Role: "astrologer"})
	require.NoError(t, err)

	result, err := env.auth.Login(ctx, LoginInput{Identifier: "raj", Password: "887776"})
	require.NoError(t, err)
	assert.Equal(t, "raj", result.Account.Username)
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	env.signup(t, "raj", "9998887776", "astrologer")

	byName, err := env.auth.Login(ctx, LoginInput{Identifier: "raj", Password: "secret-raj"})
	require.NoError(t, err)
	byMobile, err := env.auth.Login(ctx, LoginInput{Identifier: "9998887776", Password: "secret-raj"})
	require.NoError(t, err)
	assert.Equal(t, byName.Account.ID, byMobile.Account.ID)

	_, err = env.auth.Login(ctx, LoginInput{Identifier: "raj", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginInput{Identifier: "nobody", Password: "secret-raj"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.auth.Login(ctx, LoginInput{Identifier: "", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	var failed int
	for _, entry := range env.store.AuditEntries() {
		if entry.Action == entity.AuditLoginFailed {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestAuthService_VerifyRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		_, err := env.auth.Verify(token)
		assert.ErrorIs(t, err, ErrUnauthorized, token)
	}
}

func TestAuthService_Authorize(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	identity := Identity{AccountID: uuid.New(), Username: "raj", Role: entity.RoleAstrologer}

	assert.NoError(t, env.auth.Authorize(identity, entity.RoleAstrologer))
	assert.NoError(t, env.auth.Authorize(identity, entity.RoleAdmin, entity.RoleAstrologer))
	assert.ErrorIs(t, env.auth.Authorize(identity, entity.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, env.auth.Authorize(Identity{}, entity.RoleUser), ErrUnauthorized)
}
