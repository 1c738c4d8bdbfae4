package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/creaverse/dao-rewards/internal/models"
)

// PostQuery selects candidate posts for recommendation
type PostQuery struct {
	Categories    []string // empty means any category
	Since         time.Time
	ExcludeIDs    []string
	ExcludeAuthor string
	Limit         int
}

// CreatorQuery selects candidate creators for recommendation
type CreatorQuery struct {
	Types      []string // creator_types overlap; empty means any type
	ExcludeIDs []string
	Limit      int
}

// RecentLikes returns the latest likes of userID with their posts
func (r *Repository) RecentLikes(ctx context.Context, userID string, limit int) ([]models.Like, error) {
	var likes []models.Like
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&likes).Error
	return likes, err
}

// RecentSaves returns the latest saves of userID with their posts
func (r *Repository) RecentSaves(ctx context.Context, userID string, limit int) ([]models.Save, error) {
	var saves []models.Save
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&saves).Error
	return saves, err
}

// RecentFollows returns the latest follows of userID with the followed profiles
func (r *Repository) RecentFollows(ctx context.Context, userID string, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&follows).Error
	return follows, err
}

// RecentPositiveReviews returns the posts userID most recently reviewed with
// four or five stars
func (r *Repository) RecentPositiveReviews(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	var parentIDs []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND content_type = ? AND rating >= ? AND parent_post_id IS NOT NULL",
			userID, models.ContentTypeReview, 4).
		Order("created_at DESC").
		Limit(limit).
		Pluck("parent_post_id", &parentIDs).Error
	if err != nil || len(parentIDs) == 0 {
		return nil, err
	}

	var posts []models.Post
	err = r.db.WithContext(ctx).Where("id IN ?", parentIDs).Find(&posts).Error
	return posts, err
}

// CandidatePosts returns recent posts matching q, newest first, with authors
func (r *Repository) CandidatePosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	tx := r.db.WithContext(ctx).
		Preload("Author").
		Where("content_type = ? AND created_at >= ?", models.ContentTypePost, q.Since)
	if len(q.Categories) > 0 {
		tx = tx.Where("category IN ?", q.Categories)
	}
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeIDs)
	}
	if q.ExcludeAuthor != "" {
		tx = tx.Where("author_id <> ?", q.ExcludeAuthor)
	}

	var posts []models.Post
	err := tx.Order("created_at DESC").Limit(q.Limit).Find(&posts).Error
	return posts, err
}

// CandidateCreators returns profiles not in q.ExcludeIDs whose creator types
// overlap q.Types, highest reputation first
func (r *Repository) CandidateCreators(ctx context.Context, q CreatorQuery) ([]models.Profile, error) {
	tx := r.db.WithContext(ctx)
	if len(q.Types) > 0 {
		overlap := make([]clause.Expression, 0, len(q.Types))
		for _, t := range q.Types {
			overlap = append(overlap, datatypes.JSONArrayQuery("creator_types").Contains(t))
		}
		tx = tx.Where(clause.Or(overlap...))
	}
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeIDs)
	}

	var profiles []models.Profile
	err := tx.Order("reputation DESC").Limit(q.Limit).Find(&profiles).Error
	return profiles, err
}

// GetRecommendationEntry retrieves the cache entry for (userID, recType)
func (r *Repository) GetRecommendationEntry(ctx context.Context, userID, recType string) (*models.RecommendationCacheEntry, error) {
	var entry models.RecommendationCacheEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recommendation_type = ?", userID, recType).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertRecommendationEntry overwrites the cache entry keyed by (user_id, recommendation_type)
func (r *Repository) UpsertRecommendationEntry(ctx context.Context, entry *models.RecommendationCacheEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "recommendation_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recommended_ids", "scores", "algorithm_version", "expires_at", "computed_at",
		}),
	}).Create(entry).Error
}
