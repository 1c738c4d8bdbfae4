// Package objects renders persisted records into API result objects.
package objects

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/creaverse/dao-rewards/internal/models"
)

const timeFormat = "2006-01-02T15:04:05Z"

// TrustRecord renders a trust snapshot. The risk score shown is capped at 100.
func TrustRecord(rec *models.TrustRecord) map[string]interface{} {
	risk := rec.SybilRiskScore
	if risk > 100 {
		risk = 100
	}
	anomalies := rec.Anomalies()
	if anomalies == nil {
		anomalies = []string{}
	}
	return map[string]interface{}{
		"user_id":            rec.UserID,
		"trust_score":        rec.TrustScore,
		"sybil_risk_score":   risk,
		"risk_level":         rec.RiskLevel,
		"behavior_anomalies": anomalies,
		"is_flagged":         rec.IsFlagged,
		"last_analysis_at":   formatTime(rec.LastAnalysisAt),
	}
}

// RewardEvent renders a reward event
func RewardEvent(e *models.RewardEvent) map[string]interface{} {
	return map[string]interface{}{
		"id":                    e.ID,
		"user_id":               e.UserID,
		"event_type":            e.EventType,
		"base_reward":           e.BaseReward,
		"multiplier":            e.Multiplier,
		"final_reward":          e.FinalReward,
		"quality_score":         e.QualityScore,
		"reputation_multiplier": e.ReputationMultiplier,
		"anti_sybil_score":      e.AntiSybilScore,
		"related_post_id":       nullString(e.RelatedPostID.String, e.RelatedPostID.Valid),
		"related_review_id":     nullString(e.RelatedReviewID.String, e.RelatedReviewID.Valid),
		"metadata":              rawJSON(e.Metadata),
		"created_at":            formatTime(e.CreatedAt),
	}
}

// RewardEvents renders a list of reward events
func RewardEvents(events []models.RewardEvent) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(events))
	for i := range events {
		out = append(out, RewardEvent(&events[i]))
	}
	return out
}

// Transaction renders a ledger line
func Transaction(t *models.TokenTransaction) map[string]interface{} {
	return map[string]interface{}{
		"id":                t.ID,
		"user_id":           t.UserID,
		"type":              t.Type,
		"amount":            t.Amount,
		"reason":            t.Reason,
		"related_post_id":   nullString(t.RelatedPostID.String, t.RelatedPostID.Valid),
		"related_review_id": nullString(t.RelatedReviewID.String, t.RelatedReviewID.Valid),
		"reward_event_id":   nullString(t.RewardEventID.String, t.RewardEventID.Valid),
		"created_at":        formatTime(t.CreatedAt),
	}
}

// Transactions renders a list of ledger lines
func Transactions(txns []models.TokenTransaction) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(txns))
	for i := range txns {
		out = append(out, Transaction(&txns[i]))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func nullString(s string, valid bool) interface{} {
	if !valid {
		return nil
	}
	return s
}

func rawJSON(raw datatypes.JSON) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}
