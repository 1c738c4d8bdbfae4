package trust_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/testutil"
	"github.com/creaverse/dao-rewards/internal/trust"
)

func TestEstimateFlagsSybil(t *testing.T) {
	database := testutil.SQLite(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()

	testutil.Profile(t, database, "original", 200*24*time.Hour, testutil.Wallet("0xabc"))
	user := testutil.Profile(t, database, "farmer", 2*24*time.Hour, testutil.Wallet("0xabc"))
	for i := 0; i < 11; i++ {
		testutil.Post(t, database, user.ID, models.ContentTypePost, time.Now().Add(-time.Duration(i)*time.Hour))
	}
	for i := 0; i < 10; i++ {
		flagged := i < 4
		testutil.Post(t, database, user.ID, models.ContentTypeReview, time.Now().Add(-time.Duration(i)*24*time.Hour), func(p *models.Post) {
			p.IsFlagged = flagged
		})
	}

	rec, err := trust.NewEstimator(repo).Estimate(ctx, user.ID, "review", nil)
	require.NoError(t, err)
	assert.Equal(t, 85.0, rec.SybilRiskScore)
	assert.Equal(t, models.RiskLevelCritical, rec.RiskLevel)
	assert.True(t, rec.IsFlagged)
	assert.Len(t, rec.Anomalies(), 3)

	stored, err := repo.GetTrust(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFlagged)
}

func TestEstimateLogsBehavior(t *testing.T) {
	database := testutil.SQLite(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	user := testutil.Profile(t, database, "hopper", 60*24*time.Hour)
	est := trust.NewEstimator(repo)

	var rec *models.TrustRecord
	var err error
	for i := 0; i < 4; i++ {
		rec, err = est.Estimate(ctx, user.ID, "like", &trust.BehaviorMetadata{
			DeviceFingerprint: fmt.Sprintf("device-%d", i),
			IPHash:            "same-network",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 10.0, rec.SybilRiskScore)
	assert.Equal(t, models.RiskLevelLow, rec.RiskLevel)

	history, err := repo.BehaviorHistory(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestEstimateUnknownUser(t *testing.T) {
	database := testutil.SQLite(t)
	_, err := trust.NewEstimator(db.NewRepository(database.DB)).Estimate(context.Background(), "nobody", "", nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = trust.NewEstimator(db.NewRepository(database.DB)).Estimate(context.Background(), " ", "", nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCurrentReusesFreshRecord(t *testing.T) {
	database := testutil.SQLite(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	user := testutil.Profile(t, database, "steady", 60*24*time.Hour)
	est := trust.NewEstimator(repo)

	stale := &models.TrustRecord{
		UserID:            user.ID,
		TrustScore:        5,
		RiskLevel:         models.RiskLevelCritical,
		SybilRiskScore:    90,
		IsFlagged:         true,
		BehaviorAnomalies: models.JSONValue([]string{"manual"}),
		LastAnalysisAt:    time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.UpsertTrust(ctx, stale))

	rec, err := est.Current(ctx, user.ID, 72*time.Hour)
	require.NoError(t, err)
	assert.True(t, rec.IsFlagged)

	rec, err = est.Current(ctx, user.ID, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, rec.IsFlagged)
	assert.Equal(t, 0.0, rec.SybilRiskScore)
}

func TestGetMissingRecord(t *testing.T) {
	database := testutil.SQLite(t)
	_, err := trust.NewEstimator(db.NewRepository(database.DB)).Get(context.Background(), "nobody")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDisplayRisk(t *testing.T) {
	assert.Equal(t, 100.0, trust.DisplayRisk(&models.TrustRecord{SybilRiskScore: 150}))
	assert.Equal(t, 35.0, trust.DisplayRisk(&models.TrustRecord{SybilRiskScore: 35}))
}
