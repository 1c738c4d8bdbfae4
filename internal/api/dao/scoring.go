// Package dao exposes the reward and trust pipeline as JSON-RPC methods.
package dao

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/moderation"
	"github.com/creaverse/dao-rewards/internal/oracle"
	"github.com/creaverse/dao-rewards/internal/reviews"
)

// Moderator checks content before it is published
type Moderator interface {
	Check(ctx context.Context, contentType, text string, postCtx *oracle.PostContext) (moderation.Decision, error)
}

// ReviewScorer grades reviews
type ReviewScorer interface {
	ScoreReview(ctx context.Context, reviewID, content string, rating int, postTitle, postCategory string) (*reviews.Score, error)
}

// ScoringAPI provides moderation and review scoring methods
type ScoringAPI struct {
	moderator Moderator
	scorer    ReviewScorer
}

// NewScoringAPI creates a new scoring API
func NewScoringAPI(moderator Moderator, scorer ReviewScorer) *ScoringAPI {
	return &ScoringAPI{moderator: moderator, scorer: scorer}
}

type moderationParams struct {
	ContentType string              `json:"content_type"`
	Content     string              `json:"content"`
	Context     *oracle.PostContext `json:"context"`
}

// CheckContent handles moderation.check
func (s *ScoringAPI) CheckContent(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p moderationParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	d, err := s.moderator.Check(c.Request.Context(), p.ContentType, p.Content, p.Context)
	if err != nil {
		return nil, err
	}
	return d, nil
}

type reviewParams struct {
	ReviewID     string `json:"review_id"`
	Content      string `json:"content"`
	Rating       int    `json:"rating"`
	PostTitle    string `json:"post_title"`
	PostCategory string `json:"post_category"`
}

// ScoreReview handles reviews.score
func (s *ScoringAPI) ScoreReview(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p reviewParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	score, err := s.scorer.ScoreReview(c.Request.Context(), p.ReviewID, p.Content, p.Rating, p.PostTitle, p.PostCategory)
	if err != nil {
		return nil, err
	}
	return score, nil
}

// bindParams decodes by-name params into dst
func bindParams(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return apperr.InvalidInput("dao", "missing params")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "dao", "invalid parameters format", err)
	}
	return nil
}
