package environments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/wifi-survey/internal/application"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
	"github.com/bryanwahyu/wifi-survey/internal/domain/users"
	"github.com/bryanwahyu/wifi-survey/internal/infra/db/memory"
)

func setup(t *testing.T) (*Service, *memory.Store, *users.User, *users.User) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	admin := &users.User{Username: "admin", IsAdmin: true, IsApproved: true}
	member := &users.User{Username: "bob", IsApproved: true}
	require.NoError(t, st.Users().Create(ctx, admin))
	require.NoError(t, st.Users().Create(ctx, member))
	clock := application.FixedClock{T: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(st, clock, nil), st, admin, member
}

func TestCreate(t *testing.T) {
	svc, _, admin, member := setup(t)
	ctx := context.Background()

	env, err := svc.Create(ctx, admin, "  HQ  ")
	require.NoError(t, err)
	assert.Equal(t, "HQ", env.Name)
	assert.Equal(t, admin.ID, env.CreatedBy)

	_, err = svc.Create(ctx, admin, "HQ")
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Create(ctx, member, "Branch")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(ctx, admin, "   ")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListIncludesStats(t *testing.T) {
	svc, st, admin, _ := setup(t)
	ctx := context.Background()
	env, err := svc.Create(ctx, admin, "HQ")
	require.NoError(t, err)
	require.NoError(t, st.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		{EnvironmentID: env.ID, BSSID: "AA:BB:CC:DD:EE:01", SSID: "a"},
		{EnvironmentID: env.ID, BSSID: "AA:BB:CC:DD:EE:01", SSID: "b"},
	}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Stats.TotalScans)
	assert.Equal(t, 2, list[0].Stats.UniqueNetworks, "same bssid under two names is two networks")
	assert.NotNil(t, list[0].Stats.LastUpload)
}

func TestDeleteCascades(t *testing.T) {
	svc, st, admin, member := setup(t)
	ctx := context.Background()
	env, err := svc.Create(ctx, admin, "HQ")
	require.NoError(t, err)
	require.NoError(t, st.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		{EnvironmentID: env.ID, BSSID: "AA:BB:CC:DD:EE:01"},
	}))
	require.NoError(t, st.Uploads().Save(ctx, &uploads.Batch{ID: "b", EnvironmentID: env.ID}))

	_, err = svc.Delete(ctx, member, env.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	res, err := svc.Delete(ctx, admin, env.ID)
	require.NoError(t, err)
	assert.Equal(t, "HQ", res.Name)
	assert.EqualValues(t, 1, res.ScansDeleted)

	_, err = svc.Get(ctx, env.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	pairs, err := st.Scans().ExistingPairs(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	_, err = svc.Delete(ctx, admin, env.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetDetail(t *testing.T) {
	svc, st, admin, _ := setup(t)
	ctx := context.Background()
	env, err := svc.Create(ctx, admin, "HQ")
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, st.Uploads().Save(ctx, &uploads.Batch{ID: string(rune('a' + i)), EnvironmentID: env.ID}))
	}

	d, err := svc.Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, "HQ", d.Name)
	assert.Len(t, d.RecentUploads, recentUploads)
}
