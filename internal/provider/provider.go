// Package provider holds the adapters for the upstream news APIs. Adapters
// return raw provider-shaped records; transport failures are audited, logged
// and turned into an empty result.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxResults = 100
)

// ErrMissingAPIKey is returned by constructors when no credential is configured.
var ErrMissingAPIKey = errors.New("provider: api key is not configured")

// Params are query parameters merged over the provider defaults.
type Params map[string]string

// Merge returns a copy of p with over applied on top.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// ParamsFrom converts loosely typed task params into Params, skipping nested values.
func ParamsFrom(m map[string]any) Params {
	out := make(Params, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out
}

// SourceInfo describes a publication a provider can return articles for.
type SourceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Category    string `json:"category,omitempty"`
	Language    string `json:"language,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Provider is one upstream news API.
type Provider interface {
	Name() string
	FetchArticles(ctx context.Context, params Params) []json.RawMessage
	SearchArticles(ctx context.Context, query string, filters Params) []json.RawMessage
	Sources(ctx context.Context) []SourceInfo
}

// Config is passed to an adapter at construction.
type Config struct {
	Enabled       bool
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxResults    int
	RatePerMinute int // 0 means unlimited
}

func (c Config) withDefaults(baseURL string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	return c
}

// capPageSize clamps params[key] to max, filling it in when absent or invalid.
func capPageSize(params Params, key string, max int) {
	n, err := strconv.Atoi(params[key])
	if err != nil || n <= 0 || n > max {
		params[key] = strconv.Itoa(max)
	}
}
