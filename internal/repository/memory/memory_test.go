package memory

import (
	"context"
	"sync"
	"testing"

	"astrotalk/internal/entity"
	"astrotalk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func TestAccountStore_CreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	accounts := New().Accounts()

	require.NoError(t, accounts.Create(ctx, &entity.Account{Username: "raj", MobileNumber: "9998887776", PasswordHash: "h"}))

	err := accounts.Create(ctx, &entity.Account{Username: "raj", MobileNumber: "1112223334", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = accounts.Create(ctx, &entity.Account{Username: "other", MobileNumber: "9998887776", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	found, err := accounts.FindByUsernameOrMobile(ctx, "nobody", "9998887776")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "raj", found.Username)
	assert.Equal(t, entity.RoleUser, found.Role)
}

func TestProfileStore_ConcurrentUpsertCreatesOneProfile(t *testing.T) {
	ctx := context.Background()
	store := New()
	accountID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Profiles().Upsert(ctx, repository.ProfileUpsert{
				AccountID:          accountID,
				DefaultDisplayName: "raj",
				Fields:             repository.ProfileFields{Bio: strPtr("vedic")},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.ProfileCount())
}

func TestProfileStore_UpsertKeepsOmittedFields(t *testing.T) {
	ctx := context.Background()
	profiles := New().Profiles()
	accountID := uuid.New()
	langs := []string{"Hindi"}

	_, err := profiles.Upsert(ctx, repository.ProfileUpsert{
		AccountID:          accountID,
		DefaultDisplayName: "raj",
		Fields:             repository.ProfileFields{Bio: strPtr("tarot"), Languages: &langs, IsOnline: true},
	})
	require.NoError(t, err)

	updated, err := profiles.Upsert(ctx, repository.ProfileUpsert{
		AccountID: accountID,
		Fields:    repository.ProfileFields{DisplayName: strPtr("Raj Ji")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Raj Ji", updated.DisplayName)
	assert.Equal(t, "tarot", updated.Bio)
	assert.Equal(t, []string{"Hindi"}, []string(updated.Languages))
	assert.False(t, updated.IsOnline)
	assert.Equal(t, float64(entity.DefaultRating), updated.Rating)
}

func TestProfileStore_SearchPaginatesInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	profiles := New().Profiles()
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := profiles.Upsert(ctx, repository.ProfileUpsert{
			AccountID: uuid.New(),
			Fields:    repository.ProfileFields{DisplayName: strPtr(name), IsOnline: true},
		})
		require.NoError(t, err)
	}

	page, err := profiles.Search(ctx, repository.SearchFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].DisplayName)
	assert.Equal(t, "c", page[1].DisplayName)

	empty, err := profiles.Search(ctx, repository.SearchFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProfileStore_UpdateMissingProfileReturnsNil(t *testing.T) {
	profiles := New().Profiles()

	profile, err := profiles.UpdateStatus(context.Background(), uuid.New(), repository.StatusUpdate{IsOnline: boolPtr(true)})
	require.NoError(t, err)
	assert.Nil(t, profile)

	profile, err = profiles.Approve(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileStore_UpdateStatusWritesSuppliedFlags(t *testing.T) {
	ctx := context.Background()
	profiles := New().Profiles()
	accountID := uuid.New()
	_, err := profiles.Upsert(ctx, repository.ProfileUpsert{
		AccountID:          accountID,
		DefaultDisplayName: "raj",
		Fields:             repository.ProfileFields{IsOnline: true, IsBusy: true},
	})
	require.NoError(t, err)

	profile, err := profiles.UpdateStatus(ctx, accountID, repository.StatusUpdate{IsOnline: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, profile.IsOnline)
	assert.True(t, profile.IsBusy)

	_, err = profiles.UpdateStatus(ctx, accountID, repository.StatusUpdate{IsOnline: boolPtr(false), RejectBusyOffline: true})
	assert.ErrorIs(t, err, repository.ErrBusyWhileOffline)

	stored, err := profiles.FindByAccountID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnline, "refused update must not be applied")

	profile, err = profiles.UpdateStatus(ctx, accountID, repository.StatusUpdate{IsOnline: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, profile.IsOnline)
	assert.True(t, profile.IsBusy)
}
