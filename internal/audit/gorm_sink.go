package audit

import (
	"context"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
)

type apiLogWriter interface {
	Create(ctx context.Context, log *objects.ApiLog) error
}

// GormSink appends to the api_logs table.
type GormSink struct {
	repo apiLogWriter
}

func NewGormSink(repo apiLogWriter) *GormSink {
	return &GormSink{repo: repo}
}

func (s *GormSink) Write(ctx context.Context, rec CallRecord) error {
	row := &objects.ApiLog{
		ApiProvider:     rec.Provider,
		Endpoint:        rec.Endpoint,
		StatusCode:      rec.StatusCode,
		ResponseTime:    rec.LatencyMs,
		ArticlesFetched: rec.ItemCount,
		CreatedAt:       rec.At,
	}
	if rec.Failed() {
		msg := rec.Error
		row.ErrorMessage = &msg
	}
	return s.repo.Create(ctx, row)
}
