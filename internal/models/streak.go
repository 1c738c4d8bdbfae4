package models

import (
	"time"
)

// ActivityStreak tracks consecutive active days for a user
type ActivityStreak struct {
	UserID           string    `gorm:"type:varchar(36);primaryKey;column:user_id"`
	CurrentStreak    int       `gorm:"not null;default:0;column:current_streak"`
	LongestStreak    int       `gorm:"not null;default:0;column:longest_streak"`
	LastActivityDate time.Time `gorm:"type:date;column:last_activity_date"`
	Multiplier       float64   `gorm:"not null;default:1;column:multiplier"`
	UpdatedAt        time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for ActivityStreak
func (ActivityStreak) TableName() string {
	return "user_streaks"
}
