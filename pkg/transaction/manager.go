package transaction

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	defaultConflictRetry = 1
)

// Manager 管理数据库事务生命周期和上下文传播
type Manager struct {
	db            *gorm.DB
	conflictRetry int
}

// Option configures a Manager.
type Option func(*Manager)

// WithConflictRetries sets how many times an operation is re-run after a unique violation.
func WithConflictRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.conflictRetry = n
		}
	}
}

// NewManager 创建一个事务管理器实例，唯一键冲突时整体重试，其余错误回滚
func NewManager(db *gorm.DB, opts ...Option) *Manager {
	m := &Manager{db: db, conflictRetry: defaultConflictRetry}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DB returns the underlying connection.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Execute 在事务中执行业务操作
// - ctx: 上下文，用于超时控制和取消操作；已有事务时直接复用
// - opts: 事务隔离级别选项
// - operation: 需要在事务中执行业务逻辑的函数
func (m *Manager) Execute(
	ctx context.Context,
	opts *sql.TxOptions,
	operation func(ctx context.Context) error,
) error {
	if InTransaction(ctx) {
		return operation(ctx)
	}

	var err error
	for attempt := 0; attempt <= m.conflictRetry; attempt++ {
		err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 将事务实例注入上下文
			return operation(WithTransaction(ctx, tx))
		}, opts)
		if err == nil || !IsUniqueViolation(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

// IsUniqueViolation 判断是否唯一约束冲突（兼容 postgres / mysql / sqlite）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
