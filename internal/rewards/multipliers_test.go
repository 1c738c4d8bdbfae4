package rewards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/creaverse/dao-rewards/internal/models"
)

func TestBaseReward(t *testing.T) {
	tests := map[string]float64{
		models.EventTypeReview:     10,
		models.EventTypePost:       5,
		models.EventTypeEngagement: 2,
		models.EventTypeGovernance: 15,
		models.EventTypeReferral:   25,
	}
	for eventType, want := range tests {
		got, ok := BaseReward(eventType)
		assert.True(t, ok, eventType)
		assert.Equal(t, want, got, eventType)
	}
	_, ok := BaseReward("airdrop")
	assert.False(t, ok)
}

func TestMultiplierBounds(t *testing.T) {
	for v := 0.0; v <= 100; v += 0.5 {
		r := ReputationMultiplier(v)
		assert.True(t, r >= 0.5 && r <= 2.0, "reputation %v -> %v", v, r)
		q := QualityMultiplier(v)
		assert.True(t, q >= 0.2 && q <= 2.5+1e-12, "quality %v -> %v", v, q)

		tm := TrustMultiplier(v)
		if v < MinTrustScore {
			assert.Equal(t, 0.0, tm, "trust %v", v)
		} else {
			assert.True(t, tm >= 0.7 && tm <= 1.5, "trust %v -> %v", v, tm)
		}
	}

	assert.Equal(t, 0.5, ReputationMultiplier(-20))
	assert.Equal(t, 2.0, ReputationMultiplier(250))
	assert.InDelta(t, 2.5, QualityMultiplier(120), 1e-12)
}

func TestTrustMultiplierDiscontinuity(t *testing.T) {
	assert.Equal(t, 0.0, TrustMultiplier(19.999))
	assert.InDelta(t, 0.7, TrustMultiplier(20), 1e-12)
	assert.InDelta(t, 1.3, TrustMultiplier(80), 1e-12)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.97, Round2(5*1.25*1.35*1.3*1.0))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 10.97, Round2(10.96875))
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 7.0, Round2(6.999999999))
}

func TestStreakMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, StreakMultiplier(0))
	assert.Equal(t, 1.0, StreakMultiplier(1))
	assert.InDelta(t, 1.05, StreakMultiplier(2), 1e-12)
	assert.InDelta(t, 1.45, StreakMultiplier(10), 1e-12)
	assert.Equal(t, 1.5, StreakMultiplier(11))
	assert.Equal(t, 1.5, StreakMultiplier(400))
}

func TestRefreshStreak(t *testing.T) {
	mon := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	first := RefreshStreak(nil, "u1", mon)
	assert.Equal(t, 1, first.CurrentStreak)
	assert.Equal(t, 1.0, first.Multiplier)

	same := RefreshStreak(first, "u1", mon.Add(10*time.Hour))
	assert.Equal(t, 1, same.CurrentStreak)

	tue := RefreshStreak(same, "u1", mon.Add(24*time.Hour))
	assert.Equal(t, 2, tue.CurrentStreak)
	assert.InDelta(t, 1.05, tue.Multiplier, 1e-12)

	wed := RefreshStreak(tue, "u1", mon.Add(48*time.Hour))
	assert.Equal(t, 3, wed.CurrentStreak)
	assert.Equal(t, 3, wed.LongestStreak)

	sat := RefreshStreak(wed, "u1", mon.Add(5*24*time.Hour))
	assert.Equal(t, 1, sat.CurrentStreak)
	assert.Equal(t, 3, sat.LongestStreak)
	assert.Equal(t, 1.0, sat.Multiplier)
}

func TestLiveStreakMultiplier(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	streak := func(last time.Time) *models.ActivityStreak {
		return &models.ActivityStreak{CurrentStreak: 5, Multiplier: 1.2, LastActivityDate: last}
	}

	tests := []struct {
		name string
		prev *models.ActivityStreak
		want float64
	}{
		{"no streak", nil, 1},
		{"today", streak(now.Add(-2 * time.Hour)), 1.2},
		{"yesterday", streak(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), 1.2},
		{"two days ago", streak(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC)), 1},
		{"zero multiplier", &models.ActivityStreak{LastActivityDate: now}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LiveStreakMultiplier(tt.prev, now); got != tt.want {
				t.Errorf("LiveStreakMultiplier() = %v, want %v", got, tt.want)
			}
		})
	}
}
