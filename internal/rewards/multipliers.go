package rewards

import (
	"math"

	"github.com/creaverse/dao-rewards/internal/models"
)

// NeutralQuality is used when no content is scored or the content scorer is down
const NeutralQuality = 50.0

// MinTrustScore is the trust score below which a claim pays nothing
const MinTrustScore = 20.0

var baseRewards = map[string]float64{
	models.EventTypeReview:     10,
	models.EventTypePost:       5,
	models.EventTypeEngagement: 2,
	models.EventTypeGovernance: 15,
	models.EventTypeReferral:   25,
}

// BaseReward returns the base reward of an event type
func BaseReward(eventType string) (float64, bool) {
	v, ok := baseRewards[eventType]
	return v, ok
}

// ReputationMultiplier maps reputation in [0,100] onto [0.5,2.0]
func ReputationMultiplier(reputation float64) float64 {
	return 0.5 + clamp(reputation, 0, 100)/100*1.5
}

// QualityMultiplier maps a quality score in [0,100] onto [0.2,2.5]
func QualityMultiplier(quality float64) float64 {
	return 0.2 + clamp(quality, 0, 100)/100*2.3
}

// TrustMultiplier is 0 below MinTrustScore and 0.5 + trust/100 otherwise
func TrustMultiplier(trustScore float64) float64 {
	if trustScore < MinTrustScore {
		return 0
	}
	return 0.5 + trustScore/100
}

// Round2 rounds half away from zero to cents. The value is first snapped to
// an integer count of micro-units so products like 10.968749999999998 round
// as 10.96875 would.
func Round2(v float64) float64 {
	micros := math.Round(v * 1e6)
	return math.Round(micros/1e4) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
