package models

import (
	"time"

	"gorm.io/datatypes"
)

// Risk levels
const (
	RiskLevelLow      = "low"
	RiskLevelMedium   = "medium"
	RiskLevelHigh     = "high"
	RiskLevelCritical = "critical"
)

// TrustRecord is the latest trust snapshot for a user. One row per user,
// overwritten on every evaluation.
type TrustRecord struct {
	UserID            string         `gorm:"type:varchar(36);primaryKey;column:user_id"`
	TrustScore        float64        `gorm:"not null;default:100;column:trust_score"`
	SybilRiskScore    float64        `gorm:"not null;default:0;column:sybil_risk_score"`
	RiskLevel         string         `gorm:"type:varchar(16);not null;default:'low';column:risk_level"`
	BehaviorAnomalies datatypes.JSON `gorm:"type:jsonb;column:behavior_anomalies"`
	IsFlagged         bool           `gorm:"not null;default:false;column:is_flagged"`
	LastAnalysisAt    time.Time      `gorm:"not null;column:last_analysis_at"`
}

// TableName specifies the table name for TrustRecord
func (TrustRecord) TableName() string {
	return "user_trust_scores"
}

// Anomalies returns the anomaly descriptions
func (t *TrustRecord) Anomalies() []string {
	return StringList(t.BehaviorAnomalies)
}
