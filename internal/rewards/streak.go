package rewards

import (
	"time"

	"github.com/creaverse/dao-rewards/internal/models"
)

const (
	streakStep          = 0.05
	maxStreakMultiplier = 1.5
)

// StreakMultiplier returns the bonus for a streak of days consecutive active days
func StreakMultiplier(days int) float64 {
	if days <= 1 {
		return 1
	}
	m := 1 + streakStep*float64(days-1)
	if m > maxStreakMultiplier {
		return maxStreakMultiplier
	}
	return m
}

// LiveStreakMultiplier returns the stored multiplier of prev while the streak
// is still alive at now (last activity today or yesterday), else 1.
func LiveStreakMultiplier(prev *models.ActivityStreak, now time.Time) float64 {
	if prev == nil || prev.Multiplier <= 0 || prev.LastActivityDate.IsZero() {
		return 1
	}
	if day(prev.LastActivityDate).AddDate(0, 0, 1).Before(day(now)) {
		return 1
	}
	return prev.Multiplier
}

// RefreshStreak returns the streak of userID after activity at now. Activity
// on the same UTC day leaves it unchanged, the next day extends it, and any
// gap restarts it at 1.
func RefreshStreak(prev *models.ActivityStreak, userID string, now time.Time) *models.ActivityStreak {
	today := day(now)
	next := &models.ActivityStreak{
		UserID:           userID,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastActivityDate: today,
		UpdatedAt:        now,
	}

	if prev != nil && !prev.LastActivityDate.IsZero() {
		last := day(prev.LastActivityDate)
		switch {
		case !today.After(last):
			next.CurrentStreak = prev.CurrentStreak
			next.LastActivityDate = last
		case last.AddDate(0, 0, 1).Equal(today):
			next.CurrentStreak = prev.CurrentStreak + 1
		}
		if prev.LongestStreak > next.LongestStreak {
			next.LongestStreak = prev.LongestStreak
		}
	}
	if next.CurrentStreak < 1 {
		next.CurrentStreak = 1
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.Multiplier = StreakMultiplier(next.CurrentStreak)
	return next
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
