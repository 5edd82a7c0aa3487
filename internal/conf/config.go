package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/core"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/pkg/config"

	"github.com/spf13/viper"
)

// PathEnv 覆盖默认配置文件路径
const (
	PathEnv     = "NEWSFEED_CONFIG"
	DefaultPath = "configs/config.yaml"
)

type Config struct {
	Server        ServerConfig              `mapstructure:"server"`
	Database      config.DatabaseConfig     `mapstructure:"database"`
	Redis         config.RedisConfig        `mapstructure:"redis"`
	Mongo         config.MongoConfig        `mapstructure:"mongo"`
	Audit         AuditConfig               `mapstructure:"audit"`
	Providers     map[string]ProviderConfig `mapstructure:"providers"`
	Aggregator    AggregatorConfig          `mapstructure:"aggregator"`
	Feed          FeedConfig                `mapstructure:"feed"`
	RetentionDays int                       `mapstructure:"retention_days"`
	Jobs          []JobConfig               `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// AuditConfig backend 为 gorm 或 mongo
type AuditConfig struct {
	Backend string `mapstructure:"backend"`
	Buffer  int    `mapstructure:"buffer"`
}

type ProviderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxResults    int           `mapstructure:"max_results"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
}

type AggregatorConfig struct {
	MaxResults int `mapstructure:"max_results"`
	Workers    int `mapstructure:"workers"`
}

type FeedConfig struct {
	WindowDays int           `mapstructure:"window_days"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	PerPage    int           `mapstructure:"per_page"`
}

type JobConfig struct {
	Name    string                 `mapstructure:"name"`
	Task    string                 `mapstructure:"task"`
	Cron    string                 `mapstructure:"cron"`
	Enable  bool                   `mapstructure:"enable"`
	Retries int                    `mapstructure:"retries"`
	Timeout time.Duration          `mapstructure:"timeout"`
	Params  map[string]interface{} `mapstructure:"params"`
}

// Handler 返回任务实现名，未配置 task 时与 name 相同
func (j JobConfig) Handler() string {
	if j.Task != "" {
		return j.Task
	}
	return j.Name
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("audit.backend", "gorm")
	v.SetDefault("audit.buffer", 256)
	v.SetDefault("aggregator.max_results", provider.DefaultMaxResults)
	v.SetDefault("aggregator.workers", 3)
	v.SetDefault("feed.window_days", 30)
	v.SetDefault("feed.cache_ttl", 30*time.Minute)
	v.SetDefault("feed.per_page", 20)
	v.SetDefault("retention_days", 90)
	v.SetDefault("mongo.timeout", 10*time.Second)

	for _, name := range []string{core.ProviderNewsAPI, core.ProviderGuardian, core.ProviderNYT} {
		v.SetDefault("providers."+name+".enabled", true)
		v.SetDefault("providers."+name+".timeout", provider.DefaultTimeout)
	}
}

// Path 返回配置文件路径，环境变量优先
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// 显式展开 YAML 中的 ${VAR}
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}

// ProviderConfigs 转成 adapter 的构造参数，未单独配置 max_results 时使用全局值
func (c *Config) ProviderConfigs() map[string]provider.Config {
	out := make(map[string]provider.Config, len(c.Providers))
	for name, p := range c.Providers {
		maxResults := p.MaxResults
		if maxResults <= 0 {
			maxResults = c.Aggregator.MaxResults
		}
		out[name] = provider.Config{
			Enabled:       p.Enabled,
			APIKey:        p.APIKey,
			BaseURL:       p.BaseURL,
			Timeout:       p.Timeout,
			MaxResults:    maxResults,
			RatePerMinute: p.RatePerMinute,
		}
	}
	return out
}
