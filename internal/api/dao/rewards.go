package dao

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/creaverse/dao-rewards/internal/api/objects"
	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/recommend"
	"github.com/creaverse/dao-rewards/internal/rewards"
)

// RewardCalculator grants rewards and reads the ledger
type RewardCalculator interface {
	Claim(ctx context.Context, userID, eventType, content string, related rewards.RelatedIDs) (*models.RewardEvent, error)
	Balance(ctx context.Context, userID string) (*rewards.Balance, error)
	History(ctx context.Context, userID string, limit int) (*rewards.History, error)
}

// Recommender returns ranked recommendations
type Recommender interface {
	Get(ctx context.Context, userID, recType string, limit int, forceRefresh bool) (*recommend.Recommendations, error)
}

// RewardsAPI provides reward and recommendation methods
type RewardsAPI struct {
	calc        RewardCalculator
	recommender Recommender
}

// NewRewardsAPI creates a new rewards API
func NewRewardsAPI(calc RewardCalculator, recommender Recommender) *RewardsAPI {
	return &RewardsAPI{calc: calc, recommender: recommender}
}

type claimParams struct {
	UserID     string             `json:"user_id"`
	EventType  string             `json:"event_type"`
	Content    string             `json:"content"`
	RelatedIDs rewards.RelatedIDs `json:"related_ids"`
}

// Claim handles rewards.claim
func (r *RewardsAPI) Claim(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p claimParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	event, err := r.calc.Claim(c.Request.Context(), p.UserID, p.EventType, p.Content, p.RelatedIDs)
	if err != nil {
		return nil, err
	}
	return objects.RewardEvent(event), nil
}

// Balance handles rewards.balance
func (r *RewardsAPI) Balance(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, apperr.InvalidInput("dao", "missing required parameter: user_id")
	}
	b, err := r.calc.Balance(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// History handles rewards.history
func (r *RewardsAPI) History(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, apperr.InvalidInput("dao", "missing required parameter: user_id")
	}
	h, err := r.calc.History(c.Request.Context(), p.UserID, p.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"events":       objects.RewardEvents(h.Events),
		"transactions": objects.Transactions(h.Transactions),
	}, nil
}

type recommendParams struct {
	UserID       string `json:"user_id"`
	Type         string `json:"type"`
	Limit        int    `json:"limit"`
	ForceRefresh bool   `json:"force_refresh"`
}

// Recommendations handles recommendations.get
func (r *RewardsAPI) Recommendations(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p recommendParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	recs, err := r.recommender.Get(c.Request.Context(), p.UserID, p.Type, p.Limit, p.ForceRefresh)
	if err != nil {
		return nil, err
	}
	return recs, nil
}
