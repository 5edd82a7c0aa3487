package repo

import (
	"context"
	"time"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// ProviderStat 单个 provider 的调用汇总
type ProviderStat struct {
	Provider        string  `db:"provider" json:"provider"`
	Calls           int64   `db:"calls" json:"calls"`
	Failures        int64   `db:"failures" json:"failures"`
	AvgResponseMs   float64 `db:"avg_response_ms" json:"avg_response_ms"`
	ArticlesFetched int64   `db:"articles_fetched" json:"articles_fetched"`
}

// providerStatsQuery 汇总 since 之后的调用，占位符为 ?，执行前按驱动 Rebind
func providerStatsQuery(since time.Time) sq.SelectBuilder {
	return sq.Select(
		"api_provider AS provider",
		"COUNT(*) AS calls",
		"SUM(CASE WHEN error_message IS NULL THEN 0 ELSE 1 END) AS failures",
		"COALESCE(AVG(response_time), 0) AS avg_response_ms",
		"COALESCE(SUM(articles_fetched), 0) AS articles_fetched",
	).
		From("api_logs").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("api_provider").
		OrderBy("api_provider")
}

// ApiLogRepo 写入走 gorm，汇总查询走 sqlx
type ApiLogRepo struct {
	db *gorm.DB
	x  *sqlx.DB
}

func NewApiLogRepo(db *gorm.DB, x *sqlx.DB) *ApiLogRepo {
	return &ApiLogRepo{db: db, x: x}
}

func (r *ApiLogRepo) Create(ctx context.Context, log *objects.ApiLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ProviderStats 按 provider 汇总 since 之后的调用
func (r *ApiLogRepo) ProviderStats(ctx context.Context, since time.Time) ([]ProviderStat, error) {
	query, args, err := providerStatsQuery(since).ToSql()
	if err != nil {
		return nil, err
	}
	var stats []ProviderStat
	if err := r.x.SelectContext(ctx, &stats, r.x.Rebind(query), args...); err != nil {
		return nil, err
	}
	return stats, nil
}
