package reviews_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/oracle"
	"github.com/creaverse/dao-rewards/internal/reviews"
	"github.com/creaverse/dao-rewards/internal/testutil"
	"github.com/creaverse/dao-rewards/internal/trust"
)

type fakeOracle struct {
	res   *oracle.ReviewAssessment
	err   error
	calls int
}

func (f *fakeOracle) ScoreReview(context.Context, oracle.ReviewRequest) (*oracle.ReviewAssessment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := *f.res
	return &res, nil
}

func TestTokensFor(t *testing.T) {
	tests := []struct {
		quality float64
		tokens  int64
	}{
		{100, 50},
		{80, 50},
		{79.999, 25},
		{60, 25},
		{59.99, 10},
		{40, 10},
		{39.5, 5},
		{20, 5},
		{19.999, 0},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tokens, reviews.TokensFor(tt.quality), "quality %v", tt.quality)
	}
}

func TestTokensForMonotonic(t *testing.T) {
	prev := reviews.TokensFor(0)
	for q := 0.0; q <= 100; q += 0.25 {
		cur := reviews.TokensFor(q)
		require.GreaterOrEqual(t, cur, prev, "quality %v", q)
		prev = cur
	}
}

type fixture struct {
	repo   *db.Repository
	author *models.Profile
	review *models.Post
}

func (f fixture) scorer(o reviews.Oracle) *reviews.Scorer {
	return reviews.NewScorer(o, f.repo, trust.NewEstimator(f.repo), time.Hour)
}

func setup(t *testing.T) fixture {
	database := testutil.SQLite(t)
	author := testutil.Profile(t, database, "reviewer", 90*24*time.Hour)
	creator := testutil.Profile(t, database, "creator", 90*24*time.Hour)
	post := testutil.Post(t, database, creator.ID, models.ContentTypePost, time.Now().Add(-time.Hour))
	review := testutil.Post(t, database, author.ID, models.ContentTypeReview, time.Now(), func(p *models.Post) {
		p.ParentPostID = sql.NullString{String: post.ID, Valid: true}
		p.Rating = 4
	})
	return fixture{repo: db.NewRepository(database.DB), author: author, review: review}
}

func TestScoreReviewPaysAuthor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 65, IsVerified: false, Depth: 60}}

	content := strings.TrimSpace(strings.Repeat("thoughtful words about the mix ", 8))
	score, err := f.scorer(o).ScoreReview(ctx, f.review.ID, content, 4, "Album", "music")
	require.NoError(t, err)

	assert.Equal(t, int64(25), score.TokensEarned)
	assert.True(t, score.IsVerified)
	assert.Equal(t, 65.0, score.QualityScore)

	txns, err := f.repo.Transactions(ctx, f.author.ID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxTypeEarned, txns[0].Type)
	assert.Equal(t, 25.0, txns[0].Amount)
	assert.Equal(t, f.review.ID, txns[0].RelatedReviewID.String)

	author, err := f.repo.GetProfile(ctx, f.author.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, author.TokensBalance, 1e-9)
	assert.InDelta(t, 25.0, author.TokensEarned, 1e-9)

	review, err := f.repo.GetPost(ctx, f.review.ID)
	require.NoError(t, err)
	assert.True(t, review.QualityScore.Valid)
	assert.Equal(t, 65.0, review.QualityScore.Float64)
	assert.True(t, review.IsVerified)
	assert.Equal(t, int64(25), review.TokensEarned)
}

func TestScoreReviewNoTokensNoLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 12, IsVerified: true}}

	score, err := f.scorer(o).ScoreReview(ctx, f.review.ID, "meh", 2, "Album", "music")
	require.NoError(t, err)
	assert.Zero(t, score.TokensEarned)
	assert.False(t, score.IsVerified)

	txns, err := f.repo.Transactions(ctx, f.author.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestScoreReviewClampsQuality(t *testing.T) {
	f := setup(t)
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 140}}

	score, err := f.scorer(o).ScoreReview(context.Background(), f.review.ID, "great", 5, "", "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.QualityScore)
	assert.Equal(t, int64(50), score.TokensEarned)
}

func TestScoreReviewTwiceConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 85}}
	scorer := f.scorer(o)

	_, err := scorer.ScoreReview(ctx, f.review.ID, "great", 5, "", "")
	require.NoError(t, err)

	_, err = scorer.ScoreReview(ctx, f.review.ID, "great", 5, "", "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, o.calls)

	author, err := f.repo.GetProfile(ctx, f.author.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, author.TokensBalance, 1e-9)
}

func TestScoreReviewFlaggedAuthorEarnsNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertTrust(ctx, &models.TrustRecord{
		UserID:            f.author.ID,
		TrustScore:        16,
		SybilRiskScore:    85,
		RiskLevel:         models.RiskLevelCritical,
		BehaviorAnomalies: models.JSONValue([]string{"3 reviews authored in a single day"}),
		IsFlagged:         true,
		LastAnalysisAt:    time.Now().UTC(),
	}))
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 90}}

	score, err := f.scorer(o).ScoreReview(ctx, f.review.ID, "great", 5, "", "")
	require.NoError(t, err)
	assert.Zero(t, score.TokensEarned)
	assert.Equal(t, 90.0, score.QualityScore)
	assert.True(t, score.IsVerified)

	txns, err := f.repo.Transactions(ctx, f.author.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)

	author, err := f.repo.GetProfile(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Zero(t, author.TokensBalance)

	review, err := f.repo.GetPost(ctx, f.review.ID)
	require.NoError(t, err)
	assert.True(t, review.QualityScore.Valid)
	assert.Zero(t, review.TokensEarned)
}

func TestScoreReviewOracleFailureLeavesUnscored(t *testing.T) {
	for _, kind := range []apperr.Kind{apperr.KindRateLimited, apperr.KindQuotaExhausted, apperr.KindServiceError, apperr.KindFormatError} {
		t.Run(kind.String(), func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			o := &fakeOracle{err: apperr.New(kind, "oracle", "down")}

			_, err := f.scorer(o).ScoreReview(ctx, f.review.ID, "great", 5, "", "")
			assert.Equal(t, kind, apperr.KindOf(err))

			review, err := f.repo.GetPost(ctx, f.review.ID)
			require.NoError(t, err)
			assert.False(t, review.QualityScore.Valid)

			author, err := f.repo.GetProfile(ctx, f.author.ID)
			require.NoError(t, err)
			assert.Zero(t, author.TokensBalance)
		})
	}
}

func TestScoreReviewValidation(t *testing.T) {
	f := setup(t)
	o := &fakeOracle{res: &oracle.ReviewAssessment{QualityScore: 50}}
	scorer := f.scorer(o)

	tests := []struct {
		name    string
		id      string
		content string
		rating  int
		kind    apperr.Kind
	}{
		{"empty id", "", "text", 3, apperr.KindInvalidInput},
		{"blank content", f.review.ID, "   ", 3, apperr.KindInvalidInput},
		{"rating too low", f.review.ID, "text", 0, apperr.KindInvalidInput},
		{"rating too high", f.review.ID, "text", 6, apperr.KindInvalidInput},
		{"unknown review", "missing", "text", 3, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorer.ScoreReview(context.Background(), tt.id, tt.content, tt.rating, "", "")
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.Zero(t, o.calls)
}
