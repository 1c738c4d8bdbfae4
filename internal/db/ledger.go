package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creaverse/dao-rewards/internal/models"
)

// ReviewScoreUpdate carries the quality fields written onto a review
type ReviewScoreUpdate struct {
	QualityScore float64
	IsVerified   bool
	IsFlagged    bool
	TokensEarned int64
	Analysis     []byte
}

// creditTokens adds amount to the balance and lifetime earnings of userID in
// a single UPDATE, so concurrent grants never lose increments.
func (r *Repository) creditTokens(ctx context.Context, userID string, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"tokens_balance": gorm.Expr("tokens_balance + ?", amount),
			"tokens_earned":  gorm.Expr("tokens_earned + ?", amount),
			"updated_at":     r.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to credit tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProfileMissing
	}
	return nil
}

// RecordReward applies a reward claim as one unit: the event, the balance
// credit, its ledger line and the refreshed streak. txn may be nil when the
// claim pays nothing.
func (r *Repository) RecordReward(ctx context.Context, event *models.RewardEvent, txn *models.TokenTransaction, streak *models.ActivityStreak) error {
	return r.transaction(ctx, func(tx *Repository) error {
		if err := tx.db.WithContext(ctx).Create(event).Error; err != nil {
			return fmt.Errorf("failed to insert reward event: %w", err)
		}
		if txn != nil {
			if err := tx.creditTokens(ctx, event.UserID, txn.Amount); err != nil {
				return err
			}
			txn.RewardEventID.String, txn.RewardEventID.Valid = event.ID, true
			if err := tx.db.WithContext(ctx).Create(txn).Error; err != nil {
				return fmt.Errorf("failed to insert token transaction: %w", err)
			}
		}
		if streak != nil {
			if err := tx.UpsertStreak(ctx, streak); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyReviewScore writes the quality fields onto an unscored review and, when
// tokens are earned, credits the author and appends the ledger line, all in
// one transaction. A review that already carries a score yields
// ErrAlreadyScored and nothing is written.
func (r *Repository) ApplyReviewScore(ctx context.Context, reviewID string, update ReviewScoreUpdate, txn *models.TokenTransaction) error {
	return r.transaction(ctx, func(tx *Repository) error {
		res := tx.db.WithContext(ctx).Model(&models.Post{}).
			Where("id = ? AND content_type = ? AND quality_score IS NULL", reviewID, models.ContentTypeReview).
			Updates(map[string]interface{}{
				"quality_score":   update.QualityScore,
				"is_verified":     update.IsVerified,
				"is_flagged":      update.IsFlagged,
				"tokens_earned":   update.TokensEarned,
				"review_analysis": datatypes.JSON(update.Analysis),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update review score: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyScored
		}
		if txn == nil {
			return nil
		}
		if err := tx.creditTokens(ctx, txn.UserID, txn.Amount); err != nil {
			return err
		}
		if err := tx.db.WithContext(ctx).Create(txn).Error; err != nil {
			return fmt.Errorf("failed to insert token transaction: %w", err)
		}
		return nil
	})
}

// Transactions returns the most recent ledger lines of userID
func (r *Repository) Transactions(ctx context.Context, userID string, limit int) ([]models.TokenTransaction, error) {
	var txns []models.TokenTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// RewardEvents returns the most recent reward events of userID
func (r *Repository) RewardEvents(ctx context.Context, userID string, limit int) ([]models.RewardEvent, error) {
	var events []models.RewardEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// GetStreak retrieves the activity streak of userID
func (r *Repository) GetStreak(ctx context.Context, userID string) (*models.ActivityStreak, error) {
	var streak models.ActivityStreak
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &streak, nil
}

// UpsertStreak overwrites the streak row keyed by user_id
func (r *Repository) UpsertStreak(ctx context.Context, streak *models.ActivityStreak) error {
	if streak.UpdatedAt.IsZero() {
		streak.UpdatedAt = r.now()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_streak", "longest_streak", "last_activity_date", "multiplier", "updated_at",
		}),
	}).Create(streak).Error
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}
	return nil
}
