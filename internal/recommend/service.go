// Package recommend ranks posts and creators for a user and caches the
// ranked lists.
package recommend

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/internal/cache"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// AlgorithmVersion is stamped on every persisted list
const AlgorithmVersion = "decay-v1"

// TypeAll requests both posts and creators
const TypeAll = "all"

const (
	DefaultLimit = 20
	MaxLimit     = 50

	// DefaultTTL is how long a computed list may be served
	DefaultTTL = 30 * time.Minute

	postPool      = 200
	creatorPool   = 100
	candidateDays = 30
)

// Store is the persistence the service needs
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	RecentLikes(ctx context.Context, userID string, limit int) ([]models.Like, error)
	RecentSaves(ctx context.Context, userID string, limit int) ([]models.Save, error)
	RecentFollows(ctx context.Context, userID string, limit int) ([]models.Follow, error)
	RecentPositiveReviews(ctx context.Context, userID string, limit int) ([]models.Post, error)
	CandidatePosts(ctx context.Context, q db.PostQuery) ([]models.Post, error)
	CandidateCreators(ctx context.Context, q db.CreatorQuery) ([]models.Profile, error)
	GetRecommendationEntry(ctx context.Context, userID, recType string) (*models.RecommendationCacheEntry, error)
	UpsertRecommendationEntry(ctx context.Context, entry *models.RecommendationCacheEntry) error
}

// List is one ranked list and where it was served from
type List struct {
	Type       string    `json:"type"`
	Items      []Item    `json:"items"`
	ComputedAt time.Time `json:"computed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Source     string    `json:"source"`
}

// Recommendations holds the lists requested
type Recommendations struct {
	UserID   string `json:"user_id"`
	Posts    *List  `json:"posts,omitempty"`
	Creators *List  `json:"creators,omitempty"`
}

// Service computes and caches recommendations
type Service struct {
	store  Store
	front  cache.Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new recommendation service. front may be nil.
func NewService(store Store, front cache.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:  store,
		front:  front,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.WithComponent("recommend"),
	}
}

// Get returns ranked recommendations of recType for userID. Fresh cached
// lists are served unless forceRefresh is set; expired ones never are.
func (s *Service) Get(ctx context.Context, userID, recType string, limit int, forceRefresh bool) (*Recommendations, error) {
	const op = "recommend.Get"

	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput(op, "user_id is required")
	}
	var types []string
	switch recType {
	case models.RecommendationPosts, models.RecommendationCreators:
		types = []string{recType}
	case TypeAll, "":
		types = []string{models.RecommendationPosts, models.RecommendationCreators}
	default:
		return nil, apperr.InvalidInput(op, "type must be posts, creators or all")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	ctx, span := telemetry.StartSpan(ctx, op,
		attribute.String("user.id", userID),
		attribute.String("recommendation.type", recType),
		attribute.Bool("recommendation.force_refresh", forceRefresh))
	out, err := s.get(ctx, op, userID, types, limit, forceRefresh)
	telemetry.EndSpan(span, err)
	return out, err
}

func (s *Service) get(ctx context.Context, op, userID string, types []string, limit int, forceRefresh bool) (*Recommendations, error) {
	out := &Recommendations{UserID: userID}

	var prefs *Preferences
	loadPrefs := func() (*Preferences, error) {
		if prefs != nil {
			return prefs, nil
		}
		in, err := loadInteractions(ctx, s.store, userID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load interactions", err)
		}
		if in.profile == nil {
			return nil, apperr.NotFound(op, "user not found")
		}
		prefs = buildPreferences(userID, in, s.now())
		return prefs, nil
	}

	for _, t := range types {
		list, err := s.list(ctx, op, userID, t, forceRefresh, loadPrefs)
		if err != nil {
			return nil, err
		}
		if len(list.Items) > limit {
			list.Items = list.Items[:limit]
		}
		telemetry.RecordRecommendationLookup(ctx, t, list.Source)
		switch t {
		case models.RecommendationPosts:
			out.Posts = list
		case models.RecommendationCreators:
			out.Creators = list
		}
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, op, userID, recType string, forceRefresh bool, loadPrefs func() (*Preferences, error)) (*List, error) {
	key := cache.HashKey("recommendations", userID, recType)
	now := s.now()

	if !forceRefresh {
		if l := s.fromFront(ctx, key, now); l != nil {
			l.Source = "cache"
			return l, nil
		}

		entry, err := s.store.GetRecommendationEntry(ctx, userID, recType)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load cached recommendations", err)
		}
		if entry.Fresh(now) {
			l := fromEntry(entry)
			s.toFront(ctx, key, l, now)
			l.Source = "store"
			return l, nil
		}
	}

	prefs, err := loadPrefs()
	if err != nil {
		return nil, err
	}

	var items []Item
	switch recType {
	case models.RecommendationPosts:
		items, err = s.rankPosts(ctx, prefs, now)
	case models.RecommendationCreators:
		items, err = s.rankCreators(ctx, prefs)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to load candidates", err)
	}

	l := &List{Type: recType, Items: items, ComputedAt: now, ExpiresAt: now.Add(s.ttl)}
	if err := s.store.UpsertRecommendationEntry(ctx, toEntry(userID, l)); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, "failed to store recommendations", err)
	}
	s.toFront(ctx, key, l, now)

	logging.FromContext(ctx, s.logger).Debug("Recommendations computed",
		logging.UserField(userID),
		zap.String("type", recType),
		zap.Int("items", len(items)))

	l.Source = "computed"
	return l, nil
}

func (s *Service) rankPosts(ctx context.Context, prefs *Preferences, now time.Time) ([]Item, error) {
	q := db.PostQuery{
		Categories:    prefs.TopCategories(topCategoryCount),
		Since:         now.AddDate(0, 0, -candidateDays),
		ExcludeIDs:    keys(prefs.Interacted),
		ExcludeAuthor: prefs.UserID,
		Limit:         postPool,
	}
	candidates, err := s.store.CandidatePosts(ctx, q)
	if err != nil {
		return nil, err
	}

	// top up with other recent posts when the preferred categories run dry
	if len(q.Categories) > 0 && len(candidates) < MaxLimit {
		exclude := append([]string{}, q.ExcludeIDs...)
		for _, c := range candidates {
			exclude = append(exclude, c.ID)
		}
		more, err := s.store.CandidatePosts(ctx, db.PostQuery{
			Since:         q.Since,
			ExcludeIDs:    exclude,
			ExcludeAuthor: prefs.UserID,
			Limit:         postPool - len(candidates),
		})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, more...)
	}

	return diversify(scorePosts(prefs, candidates, now), maxPostsPerAuthor, MaxLimit), nil
}

func (s *Service) rankCreators(ctx context.Context, prefs *Preferences) ([]Item, error) {
	q := db.CreatorQuery{
		Types:      prefs.TopCategories(topCategoryCount),
		ExcludeIDs: append(keys(prefs.Followed), prefs.UserID),
		Limit:      creatorPool,
	}
	candidates, err := s.store.CandidateCreators(ctx, q)
	if err != nil {
		return nil, err
	}

	// top up with the highest reputation creators of any type
	if len(q.Types) > 0 && len(candidates) < MaxLimit {
		exclude := append([]string{}, q.ExcludeIDs...)
		for _, c := range candidates {
			exclude = append(exclude, c.ID)
		}
		more, err := s.store.CandidateCreators(ctx, db.CreatorQuery{
			ExcludeIDs: exclude,
			Limit:      creatorPool - len(candidates),
		})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, more...)
	}

	return scoreCreators(prefs, candidates, MaxLimit), nil
}

// fromFront returns the front-cached list under key when it is still fresh
func (s *Service) fromFront(ctx context.Context, key string, now time.Time) *List {
	if s.front == nil {
		return nil
	}
	var l List
	err := s.front.GetJSON(ctx, key, &l)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
			s.logger.Debug("Front cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	if !l.ExpiresAt.After(now) {
		return nil
	}
	return &l
}

// toFront caches l for the remainder of its lifetime
func (s *Service) toFront(ctx context.Context, key string, l *List, now time.Time) {
	if s.front == nil {
		return
	}
	ttl := l.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := s.front.SetJSON(ctx, key, l, ttl); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Debug("Front cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func fromEntry(e *models.RecommendationCacheEntry) *List {
	ids := models.StringList(e.RecommendedIDs)
	scores := models.FloatList(e.Scores)
	items := make([]Item, 0, len(ids))
	for i, id := range ids {
		item := Item{ID: id}
		if i < len(scores) {
			item.Score = scores[i]
		}
		items = append(items, item)
	}
	return &List{
		Type:       e.RecommendationType,
		Items:      items,
		ComputedAt: e.ComputedAt,
		ExpiresAt:  e.ExpiresAt,
	}
}

func toEntry(userID string, l *List) *models.RecommendationCacheEntry {
	ids := make([]string, 0, len(l.Items))
	scores := make([]float64, 0, len(l.Items))
	for _, it := range l.Items {
		ids = append(ids, it.ID)
		scores = append(scores, it.Score)
	}
	return &models.RecommendationCacheEntry{
		UserID:             userID,
		RecommendationType: l.Type,
		RecommendedIDs:     models.JSONValue(ids),
		Scores:             models.JSONValue(scores),
		AlgorithmVersion:   AlgorithmVersion,
		ExpiresAt:          l.ExpiresAt,
		ComputedAt:         l.ComputedAt,
	}
}
