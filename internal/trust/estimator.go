// Package trust estimates how likely a user is to be a sybil or reward farm.
package trust

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

const behaviorWindow = 100

// Store is the persistence the estimator needs
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	CountPosts(ctx context.Context, userID string) (int64, error)
	ReviewStats(ctx context.Context, userID string) (models.ReviewStats, error)
	CountProfilesByWallet(ctx context.Context, wallet, excludeID string) (int64, error)
	AppendBehavior(ctx context.Context, entry *models.BehaviorLog) error
	BehaviorHistory(ctx context.Context, userID string, limit int) ([]models.BehaviorLog, error)
	GetTrust(ctx context.Context, userID string) (*models.TrustRecord, error)
	UpsertTrust(ctx context.Context, rec *models.TrustRecord) error
}

// BehaviorMetadata describes the device and network of the action being evaluated
type BehaviorMetadata struct {
	DeviceFingerprint string `json:"device_fingerprint"`
	IPHash            string `json:"ip_hash"`
	UserAgent         string `json:"user_agent"`
}

func (m *BehaviorMetadata) empty() bool {
	return m == nil || (m.DeviceFingerprint == "" && m.IPHash == "")
}

// Estimator evaluates and stores trust records
type Estimator struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewEstimator creates a new trust estimator
func NewEstimator(store Store) *Estimator {
	return &Estimator{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.WithComponent("trust"),
	}
}

// Estimate evaluates userID and overwrites its trust record. When metadata
// is given the action is logged first so it counts toward the evaluation.
func (e *Estimator) Estimate(ctx context.Context, userID, actionType string, metadata *BehaviorMetadata) (*models.TrustRecord, error) {
	const op = "trust.Estimate"
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput(op, "user_id is required")
	}

	ctx, span := telemetry.StartSpan(ctx, op, attribute.String("user.id", userID))
	rec, err := e.estimate(ctx, op, userID, actionType, metadata)
	telemetry.EndSpan(span, err)
	return rec, err
}

func (e *Estimator) estimate(ctx context.Context, op, userID, actionType string, metadata *BehaviorMetadata) (*models.TrustRecord, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load profile", err)
	}
	if profile == nil {
		return nil, apperr.NotFound(op, "user not found")
	}

	if !metadata.empty() {
		entry := &models.BehaviorLog{
			UserID:            userID,
			ActionType:        actionType,
			DeviceFingerprint: metadata.DeviceFingerprint,
			IPHash:            metadata.IPHash,
			UserAgent:         metadata.UserAgent,
			CreatedAt:         e.now(),
		}
		if err := e.store.AppendBehavior(ctx, entry); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, "failed to record behavior", err)
		}
	}

	signals, err := e.signals(ctx, profile)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load trust signals", err)
	}
	eval := Evaluate(signals)

	rec := &models.TrustRecord{
		UserID:            userID,
		TrustScore:        eval.TrustScore,
		SybilRiskScore:    eval.RiskScore,
		RiskLevel:         eval.RiskLevel,
		BehaviorAnomalies: models.JSONValue(eval.Anomalies),
		IsFlagged:         eval.IsFlagged,
		LastAnalysisAt:    e.now(),
	}
	if err := e.store.UpsertTrust(ctx, rec); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to store trust record", err)
	}

	telemetry.RecordTrustEvaluation(ctx, rec.RiskLevel)
	log := logging.FromContext(ctx, e.logger).With(logging.UserField(userID))
	if rec.IsFlagged {
		log.Warn("User flagged by trust evaluation",
			zap.Float64("risk_score", rec.SybilRiskScore),
			zap.Strings("anomalies", eval.Anomalies))
	} else {
		log.Debug("Trust evaluated",
			zap.Float64("trust_score", rec.TrustScore),
			zap.String("risk_level", rec.RiskLevel))
	}
	return rec, nil
}

// signals loads the activity snapshot of profile
func (e *Estimator) signals(ctx context.Context, profile *models.Profile) (Signals, error) {
	s := Signals{
		AccountAgeDays: profile.AccountAgeDays(e.now()),
		Reputation:     profile.Reputation,
		FollowersCount: profile.FollowersCount,
		FollowingCount: profile.FollowingCount,
	}

	var err error
	if s.PostCount, err = e.store.CountPosts(ctx, profile.ID); err != nil {
		return s, err
	}
	if s.Reviews, err = e.store.ReviewStats(ctx, profile.ID); err != nil {
		return s, err
	}

	history, err := e.store.BehaviorHistory(ctx, profile.ID, behaviorWindow)
	if err != nil {
		return s, err
	}
	ips := make(map[string]struct{})
	devices := make(map[string]struct{})
	for _, h := range history {
		if h.IPHash != "" {
			ips[h.IPHash] = struct{}{}
		}
		if h.DeviceFingerprint != "" {
			devices[h.DeviceFingerprint] = struct{}{}
		}
	}
	s.BehaviorEntries = len(history)
	s.DistinctIPs = len(ips)
	s.DistinctDevices = len(devices)

	if profile.WalletAddress.Valid && profile.WalletAddress.String != "" {
		if s.SharedWalletWith, err = e.store.CountProfilesByWallet(ctx, profile.WalletAddress.String, profile.ID); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Get returns the stored trust record of userID without evaluating
func (e *Estimator) Get(ctx context.Context, userID string) (*models.TrustRecord, error) {
	const op = "trust.Get"
	rec, err := e.store.GetTrust(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load trust record", err)
	}
	if rec == nil {
		return nil, apperr.NotFound(op, "no trust record for user")
	}
	return rec, nil
}

// Current returns the stored record of userID, re-evaluating it when it is
// missing or older than maxAge. A zero maxAge always re-evaluates.
func (e *Estimator) Current(ctx context.Context, userID string, maxAge time.Duration) (*models.TrustRecord, error) {
	rec, err := e.store.GetTrust(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "trust.Current", "failed to load trust record", err)
	}
	if rec != nil && maxAge > 0 && e.now().Sub(rec.LastAnalysisAt) <= maxAge {
		return rec, nil
	}
	return e.Estimate(ctx, userID, "", nil)
}

// DisplayRisk caps the stored risk score for presentation
func DisplayRisk(rec *models.TrustRecord) float64 {
	if rec.SybilRiskScore > 100 {
		return 100
	}
	return rec.SybilRiskScore
}
