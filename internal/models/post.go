package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content types
const (
	ContentTypePost    = "post"
	ContentTypeComment = "comment"
	ContentTypeReview  = "review"
)

// Post represents a post, comment or review
type Post struct {
	ID              string         `gorm:"type:varchar(36);primaryKey;column:id"`
	AuthorID        string         `gorm:"type:varchar(36);not null;index;column:author_id"`
	ContentType     string         `gorm:"type:varchar(16);not null;default:'post';column:content_type"`
	ParentPostID    sql.NullString `gorm:"type:varchar(36);index;column:parent_post_id"`
	Title           string         `gorm:"type:varchar(255);column:title"`
	Body            string         `gorm:"type:text;column:body"`
	Category        string         `gorm:"type:varchar(64);index;column:category"`
	Tags            datatypes.JSON `gorm:"type:jsonb;column:tags"`
	Rating          int16          `gorm:"type:smallint;not null;default:0;column:rating"`
	LikesCount      int64          `gorm:"not null;default:0;column:likes_count"`
	CommentsCount   int64          `gorm:"not null;default:0;column:comments_count"`
	SharesCount     int64          `gorm:"not null;default:0;column:shares_count"`
	ModerationFlags datatypes.JSON `gorm:"type:jsonb;column:moderation_flags"`

	// Scoring fields, written once by the review scorer
	QualityScore   sql.NullFloat64 `gorm:"column:quality_score"`
	IsVerified     bool            `gorm:"not null;default:false;column:is_verified"`
	IsFlagged      bool            `gorm:"not null;default:false;column:is_flagged"`
	TokensEarned   int64           `gorm:"not null;default:0;column:tokens_earned"`
	ReviewAnalysis datatypes.JSON  `gorm:"type:jsonb;column:review_analysis"`

	CreatedAt time.Time `gorm:"not null;index;column:created_at"`

	// Relationships
	Author *Profile `gorm:"foreignKey:AuthorID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate assigns a UUID when none is set
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// TagList returns the post tags
func (p *Post) TagList() []string {
	return StringList(p.Tags)
}
