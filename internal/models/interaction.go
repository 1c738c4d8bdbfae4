package models

import (
	"time"
)

// Like represents a user liking a post
type Like struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey;column:user_id"`
	PostID    string    `gorm:"type:varchar(36);primaryKey;column:post_id"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at"`

	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}

// Save represents a bookmarked post
type Save struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey;column:user_id"`
	PostID    string    `gorm:"type:varchar(36);primaryKey;column:post_id"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at"`

	Post *Post `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Save
func (Save) TableName() string {
	return "saves"
}

// Follow represents a follow relationship
type Follow struct {
	FollowerID  string    `gorm:"type:varchar(36);primaryKey;column:follower_id"`
	FollowingID string    `gorm:"type:varchar(36);primaryKey;column:following_id"`
	CreatedAt   time.Time `gorm:"not null;index;column:created_at"`

	Following *Profile `gorm:"foreignKey:FollowingID;references:ID"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
