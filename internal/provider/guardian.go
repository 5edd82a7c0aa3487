package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iceymoss/go-newsfeed/internal/core"
)

const (
	guardianBaseURL = "https://content.guardianapis.com"
	guardianSearch  = "/search"
)

type guardianResponse struct {
	Response struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Results []json.RawMessage `json:"results"`
	} `json:"response"`
}

// Guardian talks to the Guardian content API; the key is the api-key parameter.
type Guardian struct {
	cfg    Config
	client *client
}

func NewGuardian(cfg Config, deps Deps) (*Guardian, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", core.ProviderGuardian, ErrMissingAPIKey)
	}
	cfg = cfg.withDefaults(guardianBaseURL)
	return &Guardian{
		cfg:    cfg,
		client: newClient(core.ProviderGuardian, "api-key", cfg, deps),
	}, nil
}

func (p *Guardian) Name() string {
	return core.ProviderGuardian
}

func (p *Guardian) FetchArticles(ctx context.Context, params Params) []json.RawMessage {
	query := Params{
		"lang":        "en",
		"order-by":    "newest",
		"show-fields": "thumbnail,bodyText,byline",
	}.Merge(params)
	capPageSize(query, "page-size", p.cfg.MaxResults)

	var resp guardianResponse
	err := p.client.get(ctx, guardianSearch, query, &resp, func() int { return len(resp.Response.Results) })
	if err != nil {
		return []json.RawMessage{}
	}
	return resp.Response.Results
}

func (p *Guardian) SearchArticles(ctx context.Context, query string, filters Params) []json.RawMessage {
	return p.FetchArticles(ctx, Params{"q": query}.Merge(filters))
}

func (p *Guardian) Sources(context.Context) []SourceInfo {
	return []SourceInfo{{
		ID:          "the-guardian",
		Name:        "The Guardian",
		Description: "British daily newspaper",
		URL:         "https://www.theguardian.com",
		Category:    "general",
		Language:    "en",
		Country:     "gb",
	}}
}
