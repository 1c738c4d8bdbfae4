package dao

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/creaverse/dao-rewards/internal/api/objects"
	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/internal/trust"
)

// TrustEstimator evaluates and reads trust records
type TrustEstimator interface {
	Estimate(ctx context.Context, userID, actionType string, metadata *trust.BehaviorMetadata) (*models.TrustRecord, error)
	Get(ctx context.Context, userID string) (*models.TrustRecord, error)
}

// TrustAPI provides trust methods
type TrustAPI struct {
	estimator TrustEstimator
}

// NewTrustAPI creates a new trust API
func NewTrustAPI(estimator TrustEstimator) *TrustAPI {
	return &TrustAPI{estimator: estimator}
}

type estimateParams struct {
	UserID     string                  `json:"user_id"`
	ActionType string                  `json:"action_type"`
	Metadata   *trust.BehaviorMetadata `json:"metadata"`
}

// Estimate handles trust.estimate
func (t *TrustAPI) Estimate(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p estimateParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	rec, err := t.estimator.Estimate(c.Request.Context(), p.UserID, p.ActionType, p.Metadata)
	if err != nil {
		return nil, err
	}
	return objects.TrustRecord(rec), nil
}

type userParams struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// Get handles trust.get
func (t *TrustAPI) Get(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.UserID == "" {
		return nil, apperr.InvalidInput("dao", "missing required parameter: user_id")
	}
	rec, err := t.estimator.Get(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return objects.TrustRecord(rec), nil
}
