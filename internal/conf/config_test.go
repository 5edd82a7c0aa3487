package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: ":9090"
database:
  driver: mysql
  host: ${TEST_DB_HOST}
providers:
  newsapi:
    api_key: ${TEST_NEWSAPI_KEY}
  guardian:
    enabled: false
    api_key: g
    max_results: 50
  nyt:
    api_key: n
    timeout: 5s
    rate_per_minute: 5
aggregator:
  max_results: 80
jobs:
  - name: news:fetch_guardian
    task: news:fetch
    cron: "0 */30 * * * *"
    enable: true
    retries: 2
    params:
      provider: guardian
  - name: news:cleanup
    cron: "0 0 3 * * *"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_NEWSAPI_KEY", "secret")

	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Providers[core.ProviderNewsAPI].APIKey)

	// defaults
	assert.Equal(t, 30, cfg.Feed.WindowDays)
	assert.Equal(t, 30*time.Minute, cfg.Feed.CacheTTL)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, 3, cfg.Aggregator.Workers)
	assert.Equal(t, "gorm", cfg.Audit.Backend)

	require.Len(t, cfg.Jobs, 2)
	assert.Equal(t, "news:fetch", cfg.Jobs[0].Handler())
	assert.Equal(t, "guardian", cfg.Jobs[0].Params["provider"])
	assert.Equal(t, 2, cfg.Jobs[0].Retries)
	assert.Equal(t, "news:cleanup", cfg.Jobs[1].Handler())
}

func TestProviderConfigs(t *testing.T) {
	t.Setenv("TEST_NEWSAPI_KEY", "")
	cfg, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)

	pcs := cfg.ProviderConfigs()
	require.Len(t, pcs, 3)

	assert.True(t, pcs[core.ProviderNewsAPI].Enabled)
	assert.Empty(t, pcs[core.ProviderNewsAPI].APIKey)
	assert.Equal(t, 80, pcs[core.ProviderNewsAPI].MaxResults)
	assert.Equal(t, 30*time.Second, pcs[core.ProviderNewsAPI].Timeout)

	assert.False(t, pcs[core.ProviderGuardian].Enabled)
	assert.Equal(t, 50, pcs[core.ProviderGuardian].MaxResults)

	assert.Equal(t, 5*time.Second, pcs[core.ProviderNYT].Timeout)
	assert.Equal(t, 5, pcs[core.ProviderNYT].RatePerMinute)
	assert.Zero(t, pcs[core.ProviderNewsAPI].RatePerMinute)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv(PathEnv, "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(PathEnv, "/etc/newsfeed.yaml")
	assert.Equal(t, "/etc/newsfeed.yaml", Path())
}
