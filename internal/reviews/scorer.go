// Package reviews grades submitted reviews and pays their authors.
package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/oracle"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// VerifiedThreshold is the quality score from which a review counts as verified
const VerifiedThreshold = 40.0

// Oracle is the part of the oracle client the scorer needs
type Oracle interface {
	ScoreReview(ctx context.Context, req oracle.ReviewRequest) (*oracle.ReviewAssessment, error)
}

// TrustSource returns a user's trust record no older than maxAge
type TrustSource interface {
	Current(ctx context.Context, userID string, maxAge time.Duration) (*models.TrustRecord, error)
}

// Store is the persistence the scorer needs
type Store interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ApplyReviewScore(ctx context.Context, reviewID string, update db.ReviewScoreUpdate, txn *models.TokenTransaction) error
}

// Score is the outcome of grading one review
type Score struct {
	ReviewID     string                   `json:"review_id"`
	QualityScore float64                  `json:"quality_score"`
	TokensEarned int64                    `json:"tokens_earned"`
	IsVerified   bool                     `json:"is_verified"`
	IsFlagged    bool                     `json:"is_flagged"`
	Analysis     *oracle.ReviewAssessment `json:"analysis"`
}

// Scorer grades reviews through the oracle
type Scorer struct {
	oracle      Oracle
	store       Store
	trust       TrustSource
	trustMaxAge time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewScorer creates a new review scorer. Reviews by flagged authors are
// still graded but earn no tokens.
func NewScorer(o Oracle, store Store, trust TrustSource, trustMaxAge time.Duration) *Scorer {
	return &Scorer{
		oracle:      o,
		store:       store,
		trust:       trust,
		trustMaxAge: trustMaxAge,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logging.WithComponent("reviews"),
	}
}

// TokensFor maps a quality score onto the flat token bands. Each band
// includes its lower bound.
func TokensFor(quality float64) int64 {
	switch {
	case quality >= 80:
		return 50
	case quality >= 60:
		return 25
	case quality >= 40:
		return 10
	case quality >= 20:
		return 5
	default:
		return 0
	}
}

// ScoreReview grades a review and persists the outcome. A review is scored
// at most once; oracle failures leave it unscored.
func (s *Scorer) ScoreReview(ctx context.Context, reviewID, content string, rating int, postTitle, postCategory string) (*Score, error) {
	const op = "reviews.ScoreReview"

	content = strings.TrimSpace(content)
	switch {
	case strings.TrimSpace(reviewID) == "":
		return nil, apperr.InvalidInput(op, "review_id is required")
	case content == "":
		return nil, apperr.InvalidInput(op, "review content is required")
	case rating < 1 || rating > 5:
		return nil, apperr.InvalidInput(op, "rating must be between 1 and 5")
	}

	ctx, span := telemetry.StartSpan(ctx, op, attribute.String("review.id", reviewID))
	score, err := s.score(ctx, op, reviewID, content, rating, postTitle, postCategory)
	telemetry.EndSpan(span, err)
	return score, err
}

func (s *Scorer) score(ctx context.Context, op, reviewID, content string, rating int, postTitle, postCategory string) (*Score, error) {
	review, err := s.store.GetPost(ctx, reviewID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load review", err)
	}
	if review == nil || review.ContentType != models.ContentTypeReview {
		return nil, apperr.NotFound(op, "review not found")
	}
	if review.QualityScore.Valid {
		return nil, apperr.Conflict(op, "review already scored")
	}

	authorTrust, err := s.trust.Current(ctx, review.AuthorID, s.trustMaxAge)
	if err != nil {
		return nil, err
	}
	withheld := authorTrust.IsFlagged

	assessment, err := s.oracle.ScoreReview(ctx, oracle.ReviewRequest{
		ReviewID:     reviewID,
		Content:      content,
		Rating:       rating,
		PostTitle:    postTitle,
		PostCategory: postCategory,
	})
	if err != nil {
		return nil, err
	}

	quality := clamp(assessment.QualityScore, 0, 100)
	assessment.QualityScore = quality
	assessment.IsVerified = quality >= VerifiedThreshold

	result := &Score{
		ReviewID:     reviewID,
		QualityScore: quality,
		IsVerified:   assessment.IsVerified,
		IsFlagged:    assessment.IsFlagged,
		Analysis:     assessment,
	}

	if !withheld {
		result.TokensEarned = TokensFor(quality)
	}

	analysis, err := json.Marshal(assessment)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to encode analysis", err)
	}

	var txn *models.TokenTransaction
	if result.TokensEarned > 0 {
		txn = &models.TokenTransaction{
			UserID:          review.AuthorID,
			Type:            models.TxTypeEarned,
			Amount:          float64(result.TokensEarned),
			Reason:          fmt.Sprintf("Review quality reward (score %.0f)", quality),
			RelatedReviewID: sql.NullString{String: reviewID, Valid: true},
			RelatedPostID:   review.ParentPostID,
			CreatedAt:       s.now(),
		}
	}

	err = s.store.ApplyReviewScore(ctx, reviewID, db.ReviewScoreUpdate{
		QualityScore: quality,
		IsVerified:   result.IsVerified,
		IsFlagged:    result.IsFlagged,
		TokensEarned: result.TokensEarned,
		Analysis:     analysis,
	}, txn)
	switch {
	case errors.Is(err, db.ErrAlreadyScored):
		return nil, apperr.Wrap(apperr.KindConflict, op, "review already scored", err)
	case errors.Is(err, db.ErrProfileMissing):
		return nil, apperr.Wrap(apperr.KindNotFound, op, "review author not found", err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to persist review score", err)
	}

	telemetry.RecordReviewTokens(ctx, result.TokensEarned)
	logging.FromContext(ctx, s.logger).Info("Review scored",
		zap.String("review_id", reviewID),
		logging.UserField(review.AuthorID),
		zap.Float64("quality_score", quality),
		zap.Int64("tokens_earned", result.TokensEarned),
		zap.Bool("tokens_withheld", withheld))

	return result, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
