package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile represents a platform user
type Profile struct {
	ID             string         `gorm:"type:varchar(36);primaryKey;column:id"`
	Username       string         `gorm:"type:varchar(32);not null;uniqueIndex:profiles_username_ux;column:username"`
	Reputation     float64        `gorm:"not null;default:0;column:reputation"`
	TokensBalance  float64        `gorm:"type:decimal(18,2);not null;default:0;column:tokens_balance"`
	TokensEarned   float64        `gorm:"type:decimal(18,2);not null;default:0;column:tokens_earned"`
	CreatorTypes   datatypes.JSON `gorm:"type:jsonb;column:creator_types"`
	FollowersCount int64          `gorm:"not null;default:0;column:followers_count"`
	FollowingCount int64          `gorm:"not null;default:0;column:following_count"`
	WalletAddress  sql.NullString `gorm:"type:varchar(64);index;column:wallet_address"`
	IsVerified     bool           `gorm:"not null;default:false;column:is_verified"`
	CreatedAt      time.Time      `gorm:"not null;column:created_at"`
	UpdatedAt      time.Time      `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns a UUID when none is set
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Types returns the declared creator types
func (p *Profile) Types() []string {
	return StringList(p.CreatorTypes)
}

// AccountAgeDays returns the fractional number of days since signup
func (p *Profile) AccountAgeDays(now time.Time) float64 {
	d := now.Sub(p.CreatedAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
