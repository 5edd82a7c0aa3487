package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/metrics"
	"github.com/iceymoss/go-newsfeed/internal/repo"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	errs "github.com/iceymoss/go-newsfeed/pkg/errors"
	"github.com/iceymoss/go-newsfeed/pkg/logger"
	"github.com/iceymoss/go-newsfeed/pkg/transaction"
	"github.com/iceymoss/go-newsfeed/pkg/utils"
	"github.com/iceymoss/go-newsfeed/pkg/xerr"

	"go.uber.org/zap"
)

// ErrInvalidArticle marks a canonical record missing a required field.
var ErrInvalidArticle = errors.New("article is missing a required field")

// Publisher receives change events after commit.
type Publisher interface {
	Publish(ctx context.Context, evt core.ArticleChanged)
}

// ArticleStorage persists canonical records, one transaction per article.
type ArticleStorage struct {
	articles *repo.ArticleRepo
	tx       *transaction.Manager
	events   Publisher
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      utils.Clock
}

type StorageOption func(*ArticleStorage)

func WithPublisher(p Publisher) StorageOption {
	return func(s *ArticleStorage) { s.events = p }
}

func WithStorageMetrics(m *metrics.Metrics) StorageOption {
	return func(s *ArticleStorage) { s.metrics = m }
}

func WithStorageClock(c utils.Clock) StorageOption {
	return func(s *ArticleStorage) { s.now = c }
}

func NewArticleStorage(articles *repo.ArticleRepo, tx *transaction.Manager, l *zap.Logger, opts ...StorageOption) *ArticleStorage {
	s := &ArticleStorage{
		articles: articles,
		tx:       tx,
		logger:   logger.OrDefault(l, "storage"),
		now:      utils.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the fields persistence requires.
func Validate(a core.CanonicalArticle) error {
	var missing []string
	if strings.TrimSpace(a.ExternalID) == "" {
		missing = append(missing, "external_id")
	}
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(a.URL) == "" {
		missing = append(missing, "url")
	}
	if a.PublishedAt == nil || a.PublishedAt.IsZero() {
		missing = append(missing, "published_at")
	}
	if len(missing) > 0 {
		return errs.Wrap(xerr.VALIDATION_ERROR, "", fmt.Errorf("%w: %s", ErrInvalidArticle, strings.Join(missing, ", ")))
	}
	return nil
}

// StoreArticle validates and upserts one record together with its source,
// categories and authors. Nothing is written when any step fails.
func (s *ArticleStorage) StoreArticle(ctx context.Context, a core.CanonicalArticle) error {
	if err := Validate(a); err != nil {
		s.logger.Warn("invalid article skipped", zap.Error(err), zap.Any("article", a))
		s.metrics.ObserveStore(metrics.StoreFailed)
		return err
	}

	var (
		row     *objects.Article
		created bool
	)
	err := s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		var err error
		row, created, err = s.persist(ctx, a)
		return err
	})
	if err != nil {
		s.logger.Error("store article failed", zap.Error(err), zap.Any("article", a))
		s.metrics.ObserveStore(metrics.StoreFailed)
		return errs.Wrap(xerr.PERSISTENCE_ERROR, "", err)
	}

	kind := core.ArticleUpdated
	result := metrics.StoreUpdated
	if created {
		kind = core.ArticleCreated
		result = metrics.StoreCreated
	}
	s.metrics.ObserveStore(result)
	if s.events != nil {
		s.events.Publish(ctx, core.NewArticleChanged(kind, row.ID, row.ExternalID, s.now()))
	}
	return nil
}

func (s *ArticleStorage) persist(ctx context.Context, a core.CanonicalArticle) (*objects.Article, bool, error) {
	src, err := s.articles.FindOrCreateSource(ctx, strings.TrimSpace(a.SourceName))
	if err != nil {
		return nil, false, fmt.Errorf("resolve source: %w", err)
	}

	row := &objects.Article{
		ExternalID:  a.ExternalID,
		SourceID:    src.ID,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt.UTC(),
	}
	created, err := s.articles.UpsertArticle(ctx, row)
	if err != nil {
		return nil, false, fmt.Errorf("upsert article: %w", err)
	}

	cats := make([]objects.Category, 0, len(a.Categories))
	seen := map[uint]bool{}
	for _, name := range a.Categories {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		cat, err := s.articles.FindOrCreateCategory(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("resolve category %q: %w", name, err)
		}
		if !seen[cat.ID] {
			seen[cat.ID] = true
			cats = append(cats, *cat)
		}
	}
	if err := s.articles.ReplaceCategories(ctx, row, cats); err != nil {
		return nil, false, fmt.Errorf("replace categories: %w", err)
	}

	authors := make([]objects.Author, 0, len(a.Authors))
	seen = map[uint]bool{}
	for _, name := range a.Authors {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		au, err := s.articles.FindOrCreateAuthor(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("resolve author %q: %w", name, err)
		}
		if !seen[au.ID] {
			seen[au.ID] = true
			authors = append(authors, *au)
		}
	}
	if err := s.articles.ReplaceAuthors(ctx, row, authors); err != nil {
		return nil, false, fmt.Errorf("replace authors: %w", err)
	}
	return row, created, nil
}

// StoreArticles stores records in order and returns how many succeeded.
func (s *ArticleStorage) StoreArticles(ctx context.Context, records []core.CanonicalArticle) int {
	stored := 0
	for _, a := range records {
		if ctx.Err() != nil {
			s.logger.Warn("store batch interrupted", zap.Int("stored", stored), zap.Int("total", len(records)), zap.Error(ctx.Err()))
			break
		}
		if err := s.StoreArticle(ctx, a); err == nil {
			stored++
		}
	}
	return stored
}
