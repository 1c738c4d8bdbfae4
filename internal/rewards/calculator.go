// Package rewards computes and grants token rewards for user activity.
package rewards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// minScoredContent is the content length above which the content scorer is consulted
const minScoredContent = 20

// ContentScorer rates the value of a contribution on 0..100
type ContentScorer interface {
	ScoreContent(ctx context.Context, contentType, content string) (float64, error)
}

// TrustSource returns a user's trust record no older than maxAge
type TrustSource interface {
	Current(ctx context.Context, userID string, maxAge time.Duration) (*models.TrustRecord, error)
}

// Store is the persistence the calculator needs
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetStreak(ctx context.Context, userID string) (*models.ActivityStreak, error)
	RecordReward(ctx context.Context, event *models.RewardEvent, txn *models.TokenTransaction, streak *models.ActivityStreak) error
	RewardEvents(ctx context.Context, userID string, limit int) ([]models.RewardEvent, error)
	Transactions(ctx context.Context, userID string, limit int) ([]models.TokenTransaction, error)
}

// RelatedIDs links a claim to the content that earned it
type RelatedIDs struct {
	PostID   string `json:"post_id,omitempty"`
	ReviewID string `json:"review_id,omitempty"`
}

// Breakdown is stored as the event metadata
type Breakdown struct {
	QualitySource        string  `json:"quality_source"`
	ReputationMultiplier float64 `json:"reputation_multiplier"`
	QualityMultiplier    float64 `json:"quality_multiplier"`
	TrustMultiplier      float64 `json:"trust_multiplier"`
	StreakMultiplier     float64 `json:"streak_multiplier"`
	TrustScore           float64 `json:"trust_score"`
}

// Calculator grants rewards
type Calculator struct {
	store       Store
	trust       TrustSource
	scorer      ContentScorer
	trustMaxAge time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewCalculator creates a new reward calculator. Trust records older than
// trustMaxAge are re-evaluated before a claim is paid.
func NewCalculator(store Store, trust TrustSource, scorer ContentScorer, trustMaxAge time.Duration) *Calculator {
	return &Calculator{
		store:       store,
		trust:       trust,
		scorer:      scorer,
		trustMaxAge: trustMaxAge,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logging.WithComponent("rewards"),
	}
}

// Claim computes the reward for one event and records it. Flagged users are
// refused with no event; users below the trust floor get an event paying 0.
func (c *Calculator) Claim(ctx context.Context, userID, eventType, content string, related RelatedIDs) (*models.RewardEvent, error) {
	const op = "rewards.Claim"

	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput(op, "user_id is required")
	}
	base, ok := BaseReward(eventType)
	if !ok {
		return nil, apperr.InvalidInput(op, "unknown event type")
	}

	ctx, span := telemetry.StartSpan(ctx, op,
		attribute.String("user.id", userID),
		attribute.String("reward.event_type", eventType))
	event, err := c.claim(ctx, op, userID, eventType, content, base, related)
	telemetry.EndSpan(span, err)

	outcome, amount := "granted", 0.0
	switch {
	case err != nil:
		outcome = apperr.KindOf(err).String()
	case event.FinalReward == 0:
		outcome = "zero"
	default:
		amount = event.FinalReward
	}
	telemetry.RecordRewardClaim(ctx, eventType, outcome, amount)
	return event, err
}

func (c *Calculator) claim(ctx context.Context, op, userID, eventType, content string, base float64, related RelatedIDs) (*models.RewardEvent, error) {
	log := logging.FromContext(ctx, c.logger).With(logging.UserField(userID), zap.String("event_type", eventType))

	profile, err := c.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound(op, "user not found")
	}

	trustRec, err := c.trust.Current(ctx, userID, c.trustMaxAge)
	if err != nil {
		return nil, err
	}
	if trustRec.IsFlagged {
		log.Warn("Reward refused for flagged user", zap.String("risk_level", trustRec.RiskLevel))
		return nil, apperr.Forbidden(op, "account is flagged for review")
	}

	quality, source, err := c.quality(ctx, eventType, content)
	if err != nil {
		return nil, err
	}

	streak, err := c.store.GetStreak(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load streak", err)
	}
	now := c.now()
	streakMult := LiveStreakMultiplier(streak, now)

	b := Breakdown{
		QualitySource:        source,
		ReputationMultiplier: ReputationMultiplier(profile.Reputation),
		QualityMultiplier:    QualityMultiplier(quality),
		TrustMultiplier:      TrustMultiplier(trustRec.TrustScore),
		StreakMultiplier:     streakMult,
		TrustScore:           trustRec.TrustScore,
	}
	multiplier := b.ReputationMultiplier * b.QualityMultiplier * b.TrustMultiplier * b.StreakMultiplier
	final := Round2(base * multiplier)

	event := &models.RewardEvent{
		UserID:               userID,
		EventType:            eventType,
		BaseReward:           base,
		Multiplier:           multiplier,
		FinalReward:          final,
		QualityScore:         quality,
		ReputationMultiplier: b.ReputationMultiplier,
		AntiSybilScore:       trustRec.TrustScore,
		RelatedPostID:        nullable(related.PostID),
		RelatedReviewID:      nullable(related.ReviewID),
		Metadata:             models.JSONValue(b),
		CreatedAt:            now,
	}

	var txn *models.TokenTransaction
	if final > 0 {
		txn = &models.TokenTransaction{
			UserID:          userID,
			Type:            models.TxTypeEarned,
			Amount:          final,
			Reason:          fmt.Sprintf("%s reward", eventType),
			RelatedPostID:   event.RelatedPostID,
			RelatedReviewID: event.RelatedReviewID,
			CreatedAt:       now,
		}
	}

	err = c.store.RecordReward(ctx, event, txn, RefreshStreak(streak, userID, now))
	switch {
	case errors.Is(err, db.ErrProfileMissing):
		return nil, apperr.Wrap(apperr.KindNotFound, op, "user not found", err)
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to record reward", err)
	}

	log.Info("Reward granted",
		zap.Float64("final_reward", final),
		zap.Float64("multiplier", multiplier),
		zap.String("quality_source", source))
	return event, nil
}

// quality scores content longer than minScoredContent. Outages and garbled
// answers fall back to NeutralQuality; rate limits and quota do not.
func (c *Calculator) quality(ctx context.Context, eventType, content string) (float64, string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= minScoredContent || c.scorer == nil {
		return NeutralQuality, "default", nil
	}

	q, err := c.scorer.ScoreContent(ctx, eventType, content)
	if err == nil {
		return clamp(q, 0, 100), "oracle", nil
	}
	switch apperr.KindOf(err) {
	case apperr.KindServiceError, apperr.KindFormatError:
		logging.FromContext(ctx, c.logger).Warn("Content scoring unavailable, using neutral quality",
			zap.String("event_type", eventType), zap.Error(err))
		return NeutralQuality, "fallback", nil
	}
	return 0, "", err
}

// Balance is a user's token position
type Balance struct {
	UserID         string  `json:"user_id"`
	TokensBalance  float64 `json:"tokens_balance"`
	TokensEarned   float64 `json:"tokens_earned"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	StreakMultiple float64 `json:"streak_multiplier"`
}

// Balance returns the token position of userID
func (c *Calculator) Balance(ctx context.Context, userID string) (*Balance, error) {
	const op = "rewards.Balance"
	profile, err := c.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound(op, "user not found")
	}
	streak, err := c.store.GetStreak(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load streak", err)
	}

	b := &Balance{
		UserID:         userID,
		TokensBalance:  profile.TokensBalance,
		TokensEarned:   profile.TokensEarned,
		StreakMultiple: 1,
	}
	if streak != nil {
		b.CurrentStreak = streak.CurrentStreak
		b.LongestStreak = streak.LongestStreak
		b.StreakMultiple = streak.Multiplier
	}
	return b, nil
}

// History is the recent reward activity of a user
type History struct {
	Events       []models.RewardEvent      `json:"events"`
	Transactions []models.TokenTransaction `json:"transactions"`
}

// History returns the latest limit events and ledger lines of userID
func (c *Calculator) History(ctx context.Context, userID string, limit int) (*History, error) {
	const op = "rewards.History"
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	events, err := c.store.RewardEvents(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load reward events", err)
	}
	txns, err := c.store.Transactions(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load transactions", err)
	}
	return &History{Events: events, Transactions: txns}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
