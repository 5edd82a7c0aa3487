package db

import (
	"testing"

	conf "github.com/iceymoss/go-newsfeed/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormLogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	pg, err := DSN(conf.DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "news", Password: "pw", DbName: "newsfeed"})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=news password=pw dbname=newsfeed sslmode=disable TimeZone=UTC", pg)

	my, err := DSN(conf.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "news", Password: "pw", DbName: "newsfeed"})
	require.NoError(t, err)
	assert.Equal(t, "news:pw@tcp(db:3306)/newsfeed?charset=utf8mb4&parseTime=True&loc=UTC", my)

	_, err = DSN(conf.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Info, GormLevel("debug"))
	assert.Equal(t, gormLogger.Warn, GormLevel("warning"))
	assert.Equal(t, gormLogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormLogger.Error, GormLevel(""))
}
