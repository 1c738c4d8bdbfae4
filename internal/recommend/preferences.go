package recommend

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creaverse/dao-rewards/internal/models"
)

// Interaction windows, most recent first
const (
	likeWindow   = 50
	saveWindow   = 30
	followWindow = 100
	reviewWindow = 30
)

// Signal weights
const (
	likeWeight        = 2.0
	saveWeight        = 4.0
	reviewWeight      = 3.0
	followWeight      = 1.5
	creatorTypeWeight = 2.0
	likeTagWeight     = 1.0
	saveTagWeight     = 2.0
)

// DecayWeight discounts an interaction by its age, linearly over 30 days down
// to a floor of 0.3.
func DecayWeight(age time.Duration) float64 {
	days := age.Hours() / 24
	w := 1 - days/30*0.7
	return math.Max(0.3, math.Min(1, w))
}

// Preferences is the interest model of one user
type Preferences struct {
	UserID       string
	Categories   map[string]float64
	Tags         map[string]float64
	Interacted   map[string]struct{} // post ids already liked, saved or reviewed
	LikedAuthors map[string]struct{} // authors of liked or saved posts
	Followed     map[string]struct{}
}

func newPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:       userID,
		Categories:   make(map[string]float64),
		Tags:         make(map[string]float64),
		Interacted:   make(map[string]struct{}),
		LikedAuthors: make(map[string]struct{}),
		Followed:     make(map[string]struct{}),
	}
}

type interactions struct {
	profile *models.Profile
	likes   []models.Like
	saves   []models.Save
	follows []models.Follow
	reviews []models.Post
}

// loadInteractions fetches the bounded interaction windows of userID concurrently
func loadInteractions(ctx context.Context, store Store, userID string) (*interactions, error) {
	var in interactions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.profile, err = store.GetProfile(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		in.likes, err = store.RecentLikes(gctx, userID, likeWindow)
		return err
	})
	g.Go(func() (err error) {
		in.saves, err = store.RecentSaves(gctx, userID, saveWindow)
		return err
	})
	g.Go(func() (err error) {
		in.follows, err = store.RecentFollows(gctx, userID, followWindow)
		return err
	})
	g.Go(func() (err error) {
		in.reviews, err = store.RecentPositiveReviews(gctx, userID, reviewWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

// buildPreferences folds interactions into category and tag scores
func buildPreferences(userID string, in *interactions, now time.Time) *Preferences {
	p := newPreferences(userID)

	for _, l := range in.likes {
		if l.Post == nil {
			continue
		}
		w := DecayWeight(now.Sub(l.CreatedAt))
		p.addPost(l.Post, likeWeight*w, likeTagWeight*w)
	}
	for _, s := range in.saves {
		if s.Post == nil {
			continue
		}
		w := DecayWeight(now.Sub(s.CreatedAt))
		p.addPost(s.Post, saveWeight*w, saveTagWeight*w)
	}
	for i := range in.reviews {
		post := &in.reviews[i]
		p.Interacted[post.ID] = struct{}{}
		p.addCategory(post.Category, reviewWeight)
	}
	for _, f := range in.follows {
		p.Followed[f.FollowingID] = struct{}{}
		if f.Following == nil {
			continue
		}
		for _, t := range f.Following.Types() {
			p.addCategory(t, followWeight)
		}
	}
	if in.profile != nil {
		for _, t := range in.profile.Types() {
			p.addCategory(t, creatorTypeWeight)
		}
	}
	return p
}

func (p *Preferences) addPost(post *models.Post, categoryWeight, tagWeight float64) {
	p.Interacted[post.ID] = struct{}{}
	p.LikedAuthors[post.AuthorID] = struct{}{}
	p.addCategory(post.Category, categoryWeight)
	for _, tag := range post.TagList() {
		if tag != "" {
			p.Tags[tag] += tagWeight
		}
	}
}

func (p *Preferences) addCategory(category string, weight float64) {
	if category != "" {
		p.Categories[category] += weight
	}
}

// TopCategories returns up to n categories, highest score first
func (p *Preferences) TopCategories(n int) []string {
	return topKeys(p.Categories, n)
}

// TopTags returns up to n tags, highest score first
func (p *Preferences) TopTags(n int) []string {
	return topKeys(p.Tags, n)
}

func topKeys(scores map[string]float64, n int) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
