package models

import (
	"time"

	"gorm.io/datatypes"
)

// Recommendation types
const (
	RecommendationPosts    = "posts"
	RecommendationCreators = "creators"
)

// RecommendationCacheEntry holds one ranked list per (user, type)
type RecommendationCacheEntry struct {
	UserID             string         `gorm:"type:varchar(36);primaryKey;column:user_id"`
	RecommendationType string         `gorm:"type:varchar(16);primaryKey;column:recommendation_type"`
	RecommendedIDs     datatypes.JSON `gorm:"type:jsonb;column:recommended_ids"`
	Scores             datatypes.JSON `gorm:"type:jsonb;column:scores"`
	AlgorithmVersion   string         `gorm:"type:varchar(32);column:algorithm_version"`
	ExpiresAt          time.Time      `gorm:"not null;index;column:expires_at"`
	ComputedAt         time.Time      `gorm:"not null;column:computed_at"`
}

// TableName specifies the table name for RecommendationCacheEntry
func (RecommendationCacheEntry) TableName() string {
	return "recommendation_cache"
}

// Fresh reports whether the entry may still be served at now
func (e *RecommendationCacheEntry) Fresh(now time.Time) bool {
	return e != nil && e.ExpiresAt.After(now)
}
