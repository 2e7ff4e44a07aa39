package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/shared"
	"github.com/bryanwahyu/wifi-survey/internal/domain/store"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
)

func seedEnv(t *testing.T, s *Store) *environments.Environment {
	t.Helper()
	env := &environments.Environment{Name: "HQ", CreatedBy: 1}
	require.NoError(t, s.Environments().Create(context.Background(), env))
	return env
}

func rec(env int64, bssid, ssid string, ts time.Time) *surveys.ScanRecord {
	return &surveys.ScanRecord{EnvironmentID: env, BSSID: bssid, SSID: ssid, Timestamp: ts}
}

func TestInsertAll_RejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Scans().InsertAll(ctx, []*surveys.ScanRecord{rec(env.ID, "AA:BB:CC:DD:EE:01", "a", now)}))

	err := s.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		rec(env.ID, "AA:BB:CC:DD:EE:02", "b", now),
		rec(env.ID, "AA:BB:CC:DD:EE:01", "a", now),
	})
	assert.ErrorIs(t, err, surveys.ErrDuplicatePair)

	all, err := s.Scans().ListAll(ctx, env.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1, "insert is all or nothing")
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		require.NoError(t, uow.Scans().InsertAll(ctx, []*surveys.ScanRecord{
			rec(env.ID, "AA:BB:CC:DD:EE:01", "a", time.Now()),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	pairs, err := s.Scans().ExistingPairs(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)

	err := s.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Scans().InsertAll(ctx, []*surveys.ScanRecord{
			rec(env.ID, "AA:BB:CC:DD:EE:01", "a", time.Now()),
		}); err != nil {
			return err
		}
		return uow.Uploads().Save(ctx, &uploads.Batch{ID: "b1", EnvironmentID: env.ID, Status: uploads.StatusAccepted})
	})
	require.NoError(t, err)

	pairs, err := s.Scans().ExistingPairs(ctx, env.ID)
	require.NoError(t, err)
	assert.True(t, pairs.Has(surveys.Pair{BSSID: "AA:BB:CC:DD:EE:01", SSID: "a"}))

	batches, err := s.Uploads().ListByEnvironment(ctx, env.ID, 10)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestEnvironmentDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)
	other := &environments.Environment{Name: "Branch", CreatedBy: 1}
	require.NoError(t, s.Environments().Create(ctx, other))

	require.NoError(t, s.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		rec(env.ID, "AA:BB:CC:DD:EE:01", "a", time.Now()),
		rec(other.ID, "AA:BB:CC:DD:EE:01", "a", time.Now()),
	}))
	require.NoError(t, s.Environments().Delete(ctx, env.ID))

	_, err := s.Environments().Get(ctx, env.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	gone, err := s.Scans().ListAll(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := s.Scans().ListAll(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestList_FiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		rec(env.ID, "AA:BB:CC:DD:EE:01", "Office", base),
		rec(env.ID, "AA:BB:CC:DD:EE:02", "Guest", base.Add(time.Hour)),
		rec(env.ID, "AA:BB:CC:DD:EE:03", "Office-5G", base.Add(2*time.Hour)),
	}))

	page, err := s.Scans().List(ctx, env.ID, surveys.ListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Office-5G", page.Data[0].SSID, "newest first")

	found, err := s.Scans().List(ctx, env.ID, surveys.ListFilter{Search: "office"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, found.Total)

	n, err := s.Scans().SetRogue(ctx, []surveys.ScanID{found.Data[0].ID, 999}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rogue, err := s.Scans().List(ctx, env.ID, surveys.ListFilter{RogueOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rogue.Total)

	st, err := s.Scans().Stats(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalScans)
	assert.Equal(t, 3, st.UniqueNetworks)
	assert.Equal(t, 1, st.RogueAPs)
	assert.NotNil(t, st.LastUpload)
}

func TestInsertAll_SSIDWiderThanColumn(t *testing.T) {
	ctx := context.Background()
	s := New()
	env := seedEnv(t, s)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.Scans().InsertAll(ctx, []*surveys.ScanRecord{
		rec(env.ID, "AA:BB:CC:DD:EE:01", "a", now),
		rec(env.ID, "AA:BB:CC:DD:EE:02", "a-network-name-longer-than-32-bytes", now),
	})
	assert.ErrorIs(t, err, surveys.ErrSSIDTooLong)

	all, err := s.Scans().ListAll(ctx, env.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
