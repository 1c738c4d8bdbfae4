package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/creaverse/dao-rewards/internal/models"
)

var (
	// ErrProfileMissing is returned when a balance update targets an unknown profile
	ErrProfileMissing = errors.New("profile not found")
	// ErrAlreadyScored is returned when a review's quality fields were already written
	ErrAlreadyScored = errors.New("review already scored")
)

// Repository provides database access methods
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// transaction runs fn against a repository bound to a single transaction
func (r *Repository) transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, now: r.now})
	})
}

// GetProfile retrieves a profile by ID
func (r *Repository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// CreateProfile creates a new profile
func (r *Repository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// CountProfilesByWallet counts profiles other than excludeID sharing wallet
func (r *Repository) CountProfilesByWallet(ctx context.Context, wallet, excludeID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("wallet_address = ? AND id <> ?", wallet, excludeID).
		Count(&n).Error
	return n, err
}

// ActiveProfileIDs returns profiles that authored content or received
// rewards since the given time
func (r *Repository) ActiveProfileIDs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct("author_id").
		Where("created_at >= ?", since).
		Limit(limit).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}

	var rewarded []string
	err = r.db.WithContext(ctx).Model(&models.RewardEvent{}).
		Distinct("user_id").
		Where("created_at >= ?", since).
		Limit(limit).
		Pluck("user_id", &rewarded).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids)+len(rewarded))
	out := make([]string, 0, len(ids)+len(rewarded))
	for _, id := range append(ids, rewarded...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetPost retrieves a post, comment or review by ID
func (r *Repository) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a new post
func (r *Repository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// CountPosts counts top-level posts authored by userID
func (r *Repository) CountPosts(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ? AND content_type = ?", userID, models.ContentTypePost).
		Count(&n).Error
	return n, err
}

// ReviewStats aggregates the reviews authored by userID
func (r *Repository) ReviewStats(ctx context.Context, userID string) (models.ReviewStats, error) {
	var rows []struct {
		QualityScore *float64
		IsFlagged    bool
		CreatedAt    time.Time
	}
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("quality_score", "is_flagged", "created_at").
		Where("author_id = ? AND content_type = ?", userID, models.ContentTypeReview).
		Scan(&rows).Error
	if err != nil {
		return models.ReviewStats{}, err
	}

	var stats models.ReviewStats
	var qualitySum float64
	perDay := make(map[string]int64)
	for _, row := range rows {
		stats.Total++
		if row.IsFlagged {
			stats.Flagged++
		}
		if row.QualityScore != nil {
			stats.Scored++
			qualitySum += *row.QualityScore
		}
		day := row.CreatedAt.UTC().Format("2006-01-02")
		perDay[day]++
		if perDay[day] > stats.MaxPerDay {
			stats.MaxPerDay = perDay[day]
		}
	}
	if stats.Scored > 0 {
		stats.AvgQuality = qualitySum / float64(stats.Scored)
	}
	return stats, nil
}

// AppendBehavior records a behavior log entry
func (r *Repository) AppendBehavior(ctx context.Context, entry *models.BehaviorLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// BehaviorHistory returns the most recent behavior logs of userID
func (r *Repository) BehaviorHistory(ctx context.Context, userID string, limit int) ([]models.BehaviorLog, error) {
	var logs []models.BehaviorLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
