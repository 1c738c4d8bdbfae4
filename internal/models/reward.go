package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reward event types
const (
	EventTypeReview     = "review"
	EventTypePost       = "post"
	EventTypeEngagement = "engagement"
	EventTypeGovernance = "governance"
	EventTypeReferral   = "referral"
)

// Token transaction types
const (
	TxTypeEarned   = "earned"
	TxTypeSpent    = "spent"
	TxTypeReceived = "received"
	TxTypeSent     = "sent"
	TxTypeStaked   = "staked"
	TxTypeUnstaked = "unstaked"
)

// RewardEvent is an append-only record of a reward claim
type RewardEvent struct {
	ID                   string         `gorm:"type:varchar(36);primaryKey;column:id"`
	UserID               string         `gorm:"type:varchar(36);not null;index;column:user_id"`
	EventType            string         `gorm:"type:varchar(16);not null;column:event_type"`
	BaseReward           float64        `gorm:"type:decimal(18,2);not null;column:base_reward"`
	Multiplier           float64        `gorm:"not null;column:multiplier"`
	FinalReward          float64        `gorm:"type:decimal(18,2);not null;column:final_reward"`
	QualityScore         float64        `gorm:"not null;column:quality_score"`
	ReputationMultiplier float64        `gorm:"not null;column:reputation_multiplier"`
	AntiSybilScore       float64        `gorm:"not null;column:anti_sybil_score"`
	RelatedPostID        sql.NullString `gorm:"type:varchar(36);column:related_post_id"`
	RelatedReviewID      sql.NullString `gorm:"type:varchar(36);column:related_review_id"`
	Metadata             datatypes.JSON `gorm:"type:jsonb;column:metadata"`
	CreatedAt            time.Time      `gorm:"not null;index;column:created_at"`
}

// TableName specifies the table name for RewardEvent
func (RewardEvent) TableName() string {
	return "reward_events"
}

// BeforeCreate assigns a UUID when none is set
func (r *RewardEvent) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TokenTransaction is an append-only ledger line. Profile.TokensBalance is
// the running total of these rows.
type TokenTransaction struct {
	ID              string         `gorm:"type:varchar(36);primaryKey;column:id"`
	UserID          string         `gorm:"type:varchar(36);not null;index;column:user_id"`
	Type            string         `gorm:"type:varchar(16);not null;column:type"`
	Amount          float64        `gorm:"type:decimal(18,2);not null;column:amount"`
	Reason          string         `gorm:"type:varchar(255);column:reason"`
	RelatedPostID   sql.NullString `gorm:"type:varchar(36);column:related_post_id"`
	RelatedReviewID sql.NullString `gorm:"type:varchar(36);column:related_review_id"`
	RewardEventID   sql.NullString `gorm:"type:varchar(36);column:reward_event_id"`
	CreatedAt       time.Time      `gorm:"not null;index;column:created_at"`
}

// TableName specifies the table name for TokenTransaction
func (TokenTransaction) TableName() string {
	return "token_transactions"
}

// BeforeCreate assigns a UUID when none is set
func (t *TokenTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
