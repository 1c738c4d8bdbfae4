package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BehaviorLog records the device/network fingerprint of a user action
type BehaviorLog struct {
	ID                string    `gorm:"type:varchar(36);primaryKey;column:id"`
	UserID            string    `gorm:"type:varchar(36);not null;index;column:user_id"`
	ActionType        string    `gorm:"type:varchar(32);column:action_type"`
	DeviceFingerprint string    `gorm:"type:varchar(128);column:device_fingerprint"`
	IPHash            string    `gorm:"type:varchar(128);column:ip_hash"`
	UserAgent         string    `gorm:"type:varchar(512);column:user_agent"`
	CreatedAt         time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for BehaviorLog
func (BehaviorLog) TableName() string {
	return "user_behavior_logs"
}

// BeforeCreate assigns a UUID when none is set
func (b *BehaviorLog) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
