package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	conf "github.com/iceymoss/go-newsfeed/pkg/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DSN 根据驱动拼接连接串
func DSN(c conf.DatabaseConfig) (string, error) {
	switch c.Driver {
	case DriverPostgres, "":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.User, c.Password, c.DbName, sslMode), nil
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.DbName), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Open 打开 gorm 连接并设置连接池
func Open(c conf.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	if c.Driver == DriverMySQL {
		dialector = mysql.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	dbConn, err := gorm.Open(dialector, &gorm.Config{
		Logger: &ZapGormLogger{
			Logger: logger,
			Config: gormLogger.Config{
				LogLevel:                  GormLevel(c.LogLevel),
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             500 * time.Millisecond,
			},
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Driver, err)
	}

	pool, err := dbConn.DB()
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}
	maxOpen, maxIdle := c.MaxOpenConns, c.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 30
	}
	if maxIdle <= 0 {
		maxIdle = 15
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)

	return dbConn, nil
}

// GormLevel 把配置里的日志级别映射到 gorm
func GormLevel(level string) gormLogger.LogLevel {
	switch level {
	case "debug", "info":
		return gormLogger.Info
	case "warning", "warn":
		return gormLogger.Warn
	case "silent":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}

// ZapGormLogger routes gorm logs through zap.
type ZapGormLogger struct {
	Logger *zap.Logger
	Config gormLogger.Config
}

func (l *ZapGormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *ZapGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Info {
		l.Logger.Info(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

func (l *ZapGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Warn {
		l.Logger.Warn(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

func (l *ZapGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= gormLogger.Error {
		l.Logger.Error(fmt.Sprintf(msg, data...), zap.String("source", utils.FileWithLineNum()), zap.String("agg_type", "gorm"))
	}
}

// Trace 记录 SQL 耗时与错误
func (l *ZapGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Config.LogLevel >= gormLogger.Error && (!errors.Is(err, gormLogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.Logger.Error(err.Error(),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= gormLogger.Warn:
		sql, rows := fc()
		l.Logger.Warn(fmt.Sprintf("SLOW SQL >= %v", l.Config.SlowThreshold),
			zap.String("source", utils.FileWithLineNum()),
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	case l.Config.LogLevel == gormLogger.Info:
		sql, rows := fc()
		l.Logger.Debug("sql log",
			zap.Float64("query_time", float64(elapsed.Nanoseconds())/1e6),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
			zap.String("agg_type", "gorm"),
		)
	}
}
