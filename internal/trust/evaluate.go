package trust

import (
	"fmt"
	"math"

	"github.com/creaverse/dao-rewards/internal/models"
)

// Check points. Each check contributes at most once per evaluation.
const (
	pointsYoungAndBusy = 20
	pointsReviewBurst  = 15
	pointsLowQuality   = 25
	pointsFlaggedRatio = 30
	pointsFollowSpam   = 15
	pointsDeviceFarm   = 10
	pointsSharedWallet = 35

	// thresholds
	youngAccountDays     = 7
	youngMaxReviews      = 20
	youngMaxPosts        = 10
	burstReviewsPerDay   = 10
	lowQualityAvg        = 30
	lowQualityMinReviews = 5
	flaggedRatioLimit    = 0.30
	followRatioLimit     = 10
	followMinFollowing   = 50
	deviceFarmMinDevices = 3
	flagRiskScore        = 70
)

// Signals is the snapshot of a user's activity the heuristic runs on
type Signals struct {
	AccountAgeDays   float64
	Reputation       float64
	PostCount        int64
	Reviews          models.ReviewStats
	FollowersCount   int64
	FollowingCount   int64
	BehaviorEntries  int
	DistinctIPs      int
	DistinctDevices  int
	SharedWalletWith int64
}

// Evaluation is the outcome of one trust evaluation
type Evaluation struct {
	RiskScore  float64
	RiskLevel  string
	TrustScore float64
	Anomalies  []string
	IsFlagged  bool
}

// Evaluate scores signals. It has no side effects.
func Evaluate(s Signals) Evaluation {
	var risk float64
	anomalies := []string{}
	add := func(points float64, format string, args ...interface{}) {
		risk += points
		anomalies = append(anomalies, fmt.Sprintf(format, args...))
	}

	if s.AccountAgeDays < youngAccountDays && (s.Reviews.Total > youngMaxReviews || s.PostCount > youngMaxPosts) {
		add(pointsYoungAndBusy, "new account (%.1f days) with %d reviews and %d posts", s.AccountAgeDays, s.Reviews.Total, s.PostCount)
	}
	if s.Reviews.MaxPerDay > burstReviewsPerDay {
		add(pointsReviewBurst, "%d reviews authored in a single day", s.Reviews.MaxPerDay)
	}
	if s.Reviews.Scored > 0 && s.Reviews.AvgQuality < lowQualityAvg && s.Reviews.Total > lowQualityMinReviews {
		add(pointsLowQuality, "average review quality %.1f across %d reviews", s.Reviews.AvgQuality, s.Reviews.Total)
	}
	if s.Reviews.Total > 0 {
		if ratio := float64(s.Reviews.Flagged) / float64(s.Reviews.Total); ratio > flaggedRatioLimit {
			add(pointsFlaggedRatio, "%.0f%% of reviews flagged", ratio*100)
		}
	}
	followers := s.FollowersCount
	if followers < 1 {
		followers = 1
	}
	if float64(s.FollowingCount)/float64(followers) > followRatioLimit && s.FollowingCount > followMinFollowing {
		add(pointsFollowSpam, "following %d accounts with %d followers", s.FollowingCount, s.FollowersCount)
	}
	if s.BehaviorEntries > 0 && s.DistinctIPs == 1 && s.DistinctDevices > deviceFarmMinDevices {
		add(pointsDeviceFarm, "%d device fingerprints from a single network", s.DistinctDevices)
	}
	if s.SharedWalletWith > 0 {
		add(pointsSharedWallet, "wallet address shared with %d other profiles", s.SharedWalletWith)
	}

	level := RiskLevel(risk)
	trust := 100 - risk +
		math.Min(s.AccountAgeDays*0.5, 20) +
		math.Min(s.Reviews.AvgQuality*0.2, 15) +
		s.Reputation*0.1

	return Evaluation{
		RiskScore:  risk,
		RiskLevel:  level,
		TrustScore: math.Max(0, math.Min(100, trust)),
		Anomalies:  anomalies,
		IsFlagged:  level == models.RiskLevelCritical || risk >= flagRiskScore,
	}
}

// RiskLevel maps a risk score onto its level
func RiskLevel(risk float64) string {
	switch {
	case risk >= 70:
		return models.RiskLevelCritical
	case risk >= 40:
		return models.RiskLevelHigh
	case risk >= 20:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}
