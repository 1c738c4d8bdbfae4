package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	oracleCalls      metric.Int64Counter
	oracleLatency    metric.Float64Histogram
	moderation       metric.Int64Counter
	rewardsGranted   metric.Float64Counter
	rewardClaims     metric.Int64Counter
	reviewTokens     metric.Int64Counter
	trustEvaluations metric.Int64Counter
	recommendLookups metric.Int64Counter
}

var (
	instMu sync.Mutex
	inst   *instruments
)

func resetInstruments() {
	instMu.Lock()
	inst = nil
	instMu.Unlock()
}

// get lazily builds the instruments from the current global MeterProvider.
// Instrument creation errors fall back to no-op instruments from the API.
func get() *instruments {
	instMu.Lock()
	defer instMu.Unlock()
	if inst != nil {
		return inst
	}
	m := otel.Meter(instrumentationName)
	i := &instruments{}
	i.oracleCalls, _ = m.Int64Counter("creaverse_oracle_calls_total",
		metric.WithDescription("Content scoring oracle calls by operation and outcome"))
	i.oracleLatency, _ = m.Float64Histogram("creaverse_oracle_latency_seconds",
		metric.WithDescription("Content scoring oracle latency"), metric.WithUnit("s"))
	i.moderation, _ = m.Int64Counter("creaverse_moderation_decisions_total",
		metric.WithDescription("Moderation gate decisions"))
	i.rewardsGranted, _ = m.Float64Counter("creaverse_rewards_tokens_total",
		metric.WithDescription("Tokens granted by reward claims"))
	i.rewardClaims, _ = m.Int64Counter("creaverse_reward_claims_total",
		metric.WithDescription("Reward claims by event type and outcome"))
	i.reviewTokens, _ = m.Int64Counter("creaverse_review_tokens_total",
		metric.WithDescription("Tokens granted by review scoring"))
	i.trustEvaluations, _ = m.Int64Counter("creaverse_trust_evaluations_total",
		metric.WithDescription("Trust evaluations by risk level"))
	i.recommendLookups, _ = m.Int64Counter("creaverse_recommendation_lookups_total",
		metric.WithDescription("Recommendation lookups by type and source"))
	inst = i
	return i
}

// RecordOracleCall records an oracle round trip
func RecordOracleCall(ctx context.Context, op, outcome string, took time.Duration) {
	i := get()
	if i.oracleCalls != nil {
		i.oracleCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op), attribute.String("outcome", outcome)))
	}
	if i.oracleLatency != nil {
		i.oracleLatency.Record(ctx, took.Seconds(), metric.WithAttributes(attribute.String("operation", op)))
	}
}

// RecordModeration records a moderation gate decision
func RecordModeration(ctx context.Context, contentType, decision string) {
	if c := get().moderation; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("content_type", contentType), attribute.String("decision", decision)))
	}
}

// RecordRewardClaim records a reward claim outcome and the tokens paid
func RecordRewardClaim(ctx context.Context, eventType, outcome string, amount float64) {
	i := get()
	attrs := metric.WithAttributes(attribute.String("event_type", eventType), attribute.String("outcome", outcome))
	if i.rewardClaims != nil {
		i.rewardClaims.Add(ctx, 1, attrs)
	}
	if i.rewardsGranted != nil && amount > 0 {
		i.rewardsGranted.Add(ctx, amount, metric.WithAttributes(attribute.String("event_type", eventType)))
	}
}

// RecordReviewTokens records tokens granted by review scoring
func RecordReviewTokens(ctx context.Context, tokens int64) {
	if c := get().reviewTokens; c != nil && tokens > 0 {
		c.Add(ctx, tokens)
	}
}

// RecordTrustEvaluation records a trust evaluation
func RecordTrustEvaluation(ctx context.Context, riskLevel string) {
	if c := get().trustEvaluations; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_level", riskLevel)))
	}
}

// RecordRecommendationLookup records where a recommendation list was served from
func RecordRecommendationLookup(ctx context.Context, recType, source string) {
	if c := get().recommendLookups; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", recType), attribute.String("source", source)))
	}
}
