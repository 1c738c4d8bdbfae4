package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/creaverse/dao-rewards/internal/models"
)

const (
	topCategoryCount  = 4
	topTagCount       = 10
	maxPostsPerAuthor = 2
)

var categoryRankBonus = []float64{30, 25, 20, 15}

// Item is one ranked recommendation
type Item struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type scoredPost struct {
	Item
	authorID  string
	createdAt time.Time
}

// scorePosts ranks candidate posts for p
func scorePosts(p *Preferences, candidates []models.Post, now time.Time) []scoredPost {
	rank := make(map[string]int)
	for i, c := range p.TopCategories(topCategoryCount) {
		rank[c] = i
	}
	topTags := make(map[string]struct{})
	for _, t := range p.TopTags(topTagCount) {
		topTags[t] = struct{}{}
	}

	out := make([]scoredPost, 0, len(candidates))
	for i := range candidates {
		post := &candidates[i]
		var score float64
		if r, ok := rank[post.Category]; ok {
			score += categoryRankBonus[r]
		}
		for _, tag := range post.TagList() {
			if _, ok := topTags[tag]; ok {
				score += 5
			}
		}
		if _, ok := p.LikedAuthors[post.AuthorID]; ok {
			score += 15
		}
		if post.Author != nil && post.Author.IsVerified {
			score += 5
		}
		score += engagement(post)
		score += recency(now.Sub(post.CreatedAt))

		out = append(out, scoredPost{
			Item:      Item{ID: post.ID, Score: round4(score)},
			authorID:  post.AuthorID,
			createdAt: post.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.After(out[j].createdAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func engagement(p *models.Post) float64 {
	v := 0.1 * float64(p.LikesCount+2*p.CommentsCount+3*p.SharesCount)
	return math.Min(v, 15)
}

func recency(age time.Duration) float64 {
	days := math.Max(0, age.Hours()/24)
	return 20 * math.Exp(-days/7)
}

// diversify keeps ranked posts in order but drops any beyond perAuthor from
// the same author, then truncates to limit.
func diversify(ranked []scoredPost, perAuthor, limit int) []Item {
	seen := make(map[string]int)
	out := make([]Item, 0, limit)
	for _, p := range ranked {
		if len(out) == limit {
			break
		}
		if seen[p.authorID] >= perAuthor {
			continue
		}
		seen[p.authorID]++
		out = append(out, p.Item)
	}
	return out
}

// scoreCreators ranks candidate creators for p
func scoreCreators(p *Preferences, candidates []models.Profile, limit int) []Item {
	top := make(map[string]struct{})
	for _, c := range p.TopCategories(topCategoryCount) {
		top[c] = struct{}{}
	}

	out := make([]Item, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == p.UserID {
			continue
		}
		if _, ok := p.Followed[c.ID]; ok {
			continue
		}
		var score float64
		for _, t := range c.Types() {
			if _, ok := top[t]; ok {
				score += 15
			}
		}
		score += math.Min(c.Reputation*0.3, 20)
		if c.IsVerified {
			score += 10
		}
		score += math.Min(math.Log10(float64(c.FollowersCount)+1)*3, 10)
		out = append(out, Item{ID: c.ID, Score: round4(score)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
