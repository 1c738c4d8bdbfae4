package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creaverse/dao-rewards/internal/models"
)

func TestDecayWeight(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{0, 1},
		{-day, 1},
		{15 * day, 0.65},
		{30 * day, 0.3},
		{365 * day, 0.3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DecayWeight(tt.age), 1e-9, "age %v", tt.age)
	}
}

func TestDiversifyCapsAuthors(t *testing.T) {
	var ranked []scoredPost
	for i := 0; i < 5; i++ {
		ranked = append(ranked, scoredPost{Item: Item{ID: fmt.Sprintf("a%d", i), Score: 100 - float64(i)}, authorID: "alice"})
	}
	for i := 0; i < 3; i++ {
		ranked = append(ranked, scoredPost{Item: Item{ID: fmt.Sprintf("b%d", i), Score: 50 - float64(i)}, authorID: "bob"})
	}
	for i := 0; i < 2; i++ {
		ranked = append(ranked, scoredPost{Item: Item{ID: fmt.Sprintf("c%d", i), Score: 20 - float64(i)}, authorID: "carol"})
	}

	got := diversify(ranked, maxPostsPerAuthor, 10)

	perAuthor := map[byte]int{}
	for _, it := range got {
		perAuthor[it.ID[0]]++
	}
	assert.Equal(t, 2, perAuthor['a'])
	assert.LessOrEqual(t, perAuthor['b'], 2)
	assert.LessOrEqual(t, perAuthor['c'], 2)
	require.Len(t, got, 6)
	assert.Equal(t, []string{"a0", "a1", "b0", "b1", "c0", "c1"}, ids(got))
}

func TestDiversifyTruncates(t *testing.T) {
	var ranked []scoredPost
	for i := 0; i < 10; i++ {
		ranked = append(ranked, scoredPost{Item: Item{ID: fmt.Sprintf("p%d", i)}, authorID: fmt.Sprintf("u%d", i)})
	}
	assert.Len(t, diversify(ranked, maxPostsPerAuthor, 3), 3)
}

func TestBuildPreferences(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	music := &models.Post{ID: "m1", AuthorID: "artist", Category: "music", Tags: models.JSONValue([]string{"lofi", "beats"})}
	art := &models.Post{ID: "a1", AuthorID: "painter", Category: "art", Tags: models.JSONValue([]string{"oil"})}

	in := &interactions{
		profile: &models.Profile{ID: "me", CreatorTypes: models.JSONValue([]string{"film"})},
		likes:   []models.Like{{UserID: "me", PostID: "m1", CreatedAt: now, Post: music}},
		saves:   []models.Save{{UserID: "me", PostID: "a1", CreatedAt: now.AddDate(0, 0, -60), Post: art}},
		follows: []models.Follow{{FollowerID: "me", FollowingID: "writer", Following: &models.Profile{ID: "writer", CreatorTypes: models.JSONValue([]string{"writing"})}}},
		reviews: []models.Post{{ID: "r-parent", Category: "games"}},
	}

	p := buildPreferences("me", in, now)

	assert.InDelta(t, 2.0, p.Categories["music"], 1e-9)
	assert.InDelta(t, 1.2, p.Categories["art"], 1e-9)
	assert.InDelta(t, 3.0, p.Categories["games"], 1e-9)
	assert.InDelta(t, 1.5, p.Categories["writing"], 1e-9)
	assert.InDelta(t, 2.0, p.Categories["film"], 1e-9)
	assert.InDelta(t, 1.0, p.Tags["lofi"], 1e-9)
	assert.InDelta(t, 0.6, p.Tags["oil"], 1e-9)

	assert.Equal(t, []string{"games", "film", "music", "writing"}, p.TopCategories(4))
	assert.Contains(t, p.Interacted, "m1")
	assert.Contains(t, p.Interacted, "a1")
	assert.Contains(t, p.Interacted, "r-parent")
	assert.Contains(t, p.LikedAuthors, "artist")
	assert.Contains(t, p.Followed, "writer")
}

func TestScorePosts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := newPreferences("me")
	p.Categories["music"] = 10
	p.Categories["art"] = 5
	p.Tags["lofi"] = 3
	p.LikedAuthors["artist"] = struct{}{}

	candidates := []models.Post{
		{
			ID: "top", AuthorID: "artist", Category: "music", CreatedAt: now,
			Tags:   models.JSONValue([]string{"lofi"}),
			Author: &models.Profile{IsVerified: true},
			// engagement 0.1 × (100 + 2×50 + 3×20) = 26, capped at 15
			LikesCount: 100, CommentsCount: 50, SharesCount: 20,
		},
		{ID: "second", AuthorID: "painter", Category: "art", CreatedAt: now.AddDate(0, 0, -7)},
		{ID: "other", AuthorID: "stranger", Category: "cooking", CreatedAt: now.AddDate(0, 0, -1), LikesCount: 10},
	}

	got := scorePosts(p, candidates, now)
	require.Len(t, got, 3)

	// 30 + 5 + 15 + 5 + 15 + 20
	assert.Equal(t, "top", got[0].ID)
	assert.InDelta(t, 90.0, got[0].Score, 1e-4)
	// 25 + 20/e
	assert.Equal(t, "second", got[1].ID)
	assert.InDelta(t, 25+20/2.718281828, got[1].Score, 1e-3)
	// 1 + 20e^(-1/7)
	assert.Equal(t, "other", got[2].ID)
}

func TestScoreCreators(t *testing.T) {
	p := newPreferences("me")
	p.Categories["music"] = 4
	p.Followed["already"] = struct{}{}

	candidates := []models.Profile{
		{ID: "me", Reputation: 100},
		{ID: "already", Reputation: 100},
		{ID: "musician", Reputation: 50, IsVerified: true, FollowersCount: 999, CreatorTypes: models.JSONValue([]string{"music", "art"})},
		{ID: "newbie", Reputation: 10, FollowersCount: 0},
	}

	got := scoreCreators(p, candidates, 10)
	require.Len(t, got, 2)
	// 15 + min(15,20) + 10 + min(3×3,10)
	assert.Equal(t, "musician", got[0].ID)
	assert.InDelta(t, 49.0, got[0].Score, 1e-4)
	assert.Equal(t, "newbie", got[1].ID)
	assert.InDelta(t, 3.0, got[1].Score, 1e-4)
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
