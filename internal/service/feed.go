package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/metrics"
	"github.com/iceymoss/go-newsfeed/internal/scoring"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	"github.com/iceymoss/go-newsfeed/pkg/logger"
	"github.com/iceymoss/go-newsfeed/pkg/utils"

	"go.uber.org/zap"
)

const (
	DefaultWindowDays = 30
	DefaultPerPage    = 20
	MaxPerPage        = 100
)

// ArticleReader is what the feed needs from article storage.
type ArticleReader interface {
	PublishedSince(ctx context.Context, since time.Time) ([]objects.Article, error)
	LatestPage(ctx context.Context, offset, limit int) ([]objects.Article, int64, error)
}

// PreferenceStore reads and writes user preferences.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID uint) (*objects.UserPreference, error)
	SavePreference(ctx context.Context, pref *objects.UserPreference) error
}

// PageCache caches rendered feed pages; see cache.FeedCache.
type PageCache interface {
	Key(ctx context.Context, userID uint, page, perPage int) (string, error)
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	InvalidateUser(ctx context.Context, userID uint) error
}

// FeedEntry is one article in a feed page. RelevanceScore is absent on the
// recency fallback path.
type FeedEntry struct {
	objects.Article
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

type FeedPage struct {
	Data         []FeedEntry `json:"data"`
	Page         int         `json:"page"`
	PerPage      int         `json:"per_page"`
	Total        int64       `json:"total"`
	Personalized bool        `json:"personalized"`
}

type FeedConfig struct {
	WindowDays     int
	DefaultPerPage int
}

// FeedService builds personalized feeds.
type FeedService struct {
	articles ArticleReader
	prefs    PreferenceStore
	cache    PageCache
	cfg      FeedConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      utils.Clock
}

type FeedOption func(*FeedService)

// WithPageCache enables caching; without it every request is computed.
func WithPageCache(c PageCache) FeedOption {
	return func(s *FeedService) { s.cache = c }
}

func WithFeedMetrics(m *metrics.Metrics) FeedOption {
	return func(s *FeedService) { s.metrics = m }
}

func WithFeedClock(c utils.Clock) FeedOption {
	return func(s *FeedService) { s.now = c }
}

func NewFeedService(articles ArticleReader, prefs PreferenceStore, cfg FeedConfig, l *zap.Logger, opts ...FeedOption) *FeedService {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = DefaultPerPage
	}
	s := &FeedService{
		articles: articles,
		prefs:    prefs,
		cfg:      cfg,
		logger:   logger.OrDefault(l, "feed"),
		now:      utils.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RankFeed returns one page of the user's feed. Users without preferences,
// or with nothing published inside the scoring window, get the plain recency
// listing.
func (s *FeedService) RankFeed(ctx context.Context, userID uint, page, perPage int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.cfg.DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	key := s.cacheKey(ctx, userID, page, perPage)
	if key != "" {
		var cached FeedPage
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("feed cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		if hit {
			s.metrics.ObserveFeed(metrics.FeedCacheHit)
			return &cached, nil
		}
	}

	pref, err := s.prefs.GetPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preference: %w", err)
	}

	var out *FeedPage
	if pref.IsEmpty() {
		s.metrics.ObserveFeed(metrics.FeedFallback)
		out, err = s.latest(ctx, page, perPage)
	} else {
		s.metrics.ObserveFeed(metrics.FeedCacheMiss)
		out, err = s.ranked(ctx, pref, page, perPage)
	}
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.logger.Warn("feed cache write failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	return out, nil
}

// Latest is the unpersonalized listing, newest first.
func (s *FeedService) Latest(ctx context.Context, page, perPage int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = s.cfg.DefaultPerPage
	}
	return s.latest(ctx, page, perPage)
}

func (s *FeedService) latest(ctx context.Context, page, perPage int) (*FeedPage, error) {
	list, total, err := s.articles.LatestPage(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("load latest articles: %w", err)
	}
	data := make([]FeedEntry, 0, len(list))
	for _, a := range list {
		data = append(data, FeedEntry{Article: a})
	}
	return &FeedPage{Data: data, Page: page, PerPage: perPage, Total: total}, nil
}

func (s *FeedService) ranked(ctx context.Context, pref *objects.UserPreference, page, perPage int) (*FeedPage, error) {
	now := s.now()
	candidates, err := s.articles.PublishedSince(ctx, utils.DaysAgo(now, s.cfg.WindowDays))
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	// 窗口内没有文章时退回到按时间排序的列表
	if len(candidates) == 0 {
		return s.latest(ctx, page, perPage)
	}

	ranked := scoring.Rank(candidates, pref, now)
	window := scoring.Paginate(ranked, page, perPage)
	data := make([]FeedEntry, 0, len(window))
	for _, r := range window {
		score := r.RelevanceScore
		data = append(data, FeedEntry{Article: r.Article, RelevanceScore: &score})
	}
	return &FeedPage{
		Data:         data,
		Page:         page,
		PerPage:      perPage,
		Total:        int64(len(ranked)),
		Personalized: true,
	}, nil
}

func (s *FeedService) cacheKey(ctx context.Context, userID uint, page, perPage int) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Key(ctx, userID, page, perPage)
	if err != nil {
		s.logger.Warn("feed cache unavailable", zap.Uint("user_id", userID), zap.Error(err))
		return ""
	}
	return key
}

// GetPreference returns the stored preference, or an empty one.
func (s *FeedService) GetPreference(ctx context.Context, userID uint) (*objects.UserPreference, error) {
	pref, err := s.prefs.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		pref = &objects.UserPreference{UserID: userID}
	}
	return pref, nil
}

// SavePreference replaces the user's preference lists and drops their cached pages.
func (s *FeedService) SavePreference(ctx context.Context, pref *objects.UserPreference) error {
	if err := s.prefs.SavePreference(ctx, pref); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, pref.UserID); err != nil {
			s.logger.Warn("feed cache invalidation failed", zap.Uint("user_id", pref.UserID), zap.Error(err))
		}
	}
	return nil
}
