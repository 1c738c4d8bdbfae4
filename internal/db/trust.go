package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creaverse/dao-rewards/internal/models"
)

// GetTrust retrieves the trust snapshot of userID
func (r *Repository) GetTrust(ctx context.Context, userID string) (*models.TrustRecord, error) {
	var rec models.TrustRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpsertTrust overwrites the trust snapshot keyed by user_id
func (r *Repository) UpsertTrust(ctx context.Context, rec *models.TrustRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"trust_score", "sybil_risk_score", "risk_level",
			"behavior_anomalies", "is_flagged", "last_analysis_at",
		}),
	}).Create(rec).Error
}
