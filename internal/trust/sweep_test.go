package trust_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/testutil"
	"github.com/creaverse/dao-rewards/internal/trust"
)

type staticActive struct {
	ids []string
	err error
}

func (s staticActive) ActiveProfileIDs(context.Context, time.Time, int) ([]string, error) {
	return s.ids, s.err
}

func TestSweepOnceEvaluatesActiveUsers(t *testing.T) {
	database := testutil.SQLite(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()

	testutil.Profile(t, database, "original", 200*24*time.Hour, testutil.Wallet("0xabc"))
	farmer := testutil.Profile(t, database, "farmer", 2*24*time.Hour, testutil.Wallet("0xabc"))
	regular := testutil.Profile(t, database, "regular", 400*24*time.Hour)
	testutil.Post(t, database, farmer.ID, models.ContentTypePost, time.Now().UTC().Add(-time.Hour))
	testutil.Post(t, database, regular.ID, models.ContentTypePost, time.Now().UTC().Add(-2*time.Hour))
	testutil.Post(t, database, regular.ID, models.ContentTypePost, time.Now().UTC().Add(-30*24*time.Hour))

	sweep := trust.NewSweep(trust.NewEstimator(repo), repo, time.Hour, 7*24*time.Hour, 100)
	stats, err := sweep.Once(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Evaluated)
	assert.Zero(t, stats.Failed)

	rec, err := repo.GetTrust(ctx, farmer.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Contains(t, rec.Anomalies(), "wallet address shared with 1 other profiles")

	rec, err = repo.GetTrust(ctx, regular.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.IsFlagged)
}

func TestSweepOnceCountsFailures(t *testing.T) {
	database := testutil.SQLite(t)
	repo := db.NewRepository(database.DB)
	user := testutil.Profile(t, database, "known", 90*24*time.Hour)

	sweep := trust.NewSweep(trust.NewEstimator(repo), staticActive{ids: []string{user.ID, "ghost"}}, 0, 0, 0)
	stats, err := sweep.Once(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Evaluated)
	assert.Equal(t, 1, stats.Failed)
}

func TestSweepOnceListFailure(t *testing.T) {
	database := testutil.SQLite(t)
	sweep := trust.NewSweep(trust.NewEstimator(db.NewRepository(database.DB)), staticActive{err: errors.New("db down")}, 0, 0, 0)
	_, err := sweep.Once(context.Background())
	assert.Error(t, err)
}

func TestSweepRunStopsOnCancel(t *testing.T) {
	database := testutil.SQLite(t)
	sweep := trust.NewSweep(trust.NewEstimator(db.NewRepository(database.DB)), staticActive{}, time.Hour, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweep.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not stop")
	}
}
