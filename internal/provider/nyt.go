package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iceymoss/go-newsfeed/internal/core"
)

const (
	nytBaseURL       = "https://api.nytimes.com/svc"
	nytArticleSearch = "/search/v2/articlesearch.json"
)

type nytResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []json.RawMessage `json:"docs"`
	} `json:"response"`
}

// NYT talks to the Article Search API. Page size is fixed upstream, so only
// the sort order is defaulted.
type NYT struct {
	cfg    Config
	client *client
}

func NewNYT(cfg Config, deps Deps) (*NYT, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", core.ProviderNYT, ErrMissingAPIKey)
	}
	cfg = cfg.withDefaults(nytBaseURL)
	return &NYT{
		cfg:    cfg,
		client: newClient(core.ProviderNYT, "api-key", cfg, deps),
	}, nil
}

func (p *NYT) Name() string {
	return core.ProviderNYT
}

func (p *NYT) FetchArticles(ctx context.Context, params Params) []json.RawMessage {
	query := Params{"sort": "newest"}.Merge(params)

	var resp nytResponse
	err := p.client.get(ctx, nytArticleSearch, query, &resp, func() int { return len(resp.Response.Docs) })
	if err != nil {
		return []json.RawMessage{}
	}
	return resp.Response.Docs
}

func (p *NYT) SearchArticles(ctx context.Context, query string, filters Params) []json.RawMessage {
	return p.FetchArticles(ctx, Params{"q": query}.Merge(filters))
}

func (p *NYT) Sources(context.Context) []SourceInfo {
	return []SourceInfo{{
		ID:          "nyt",
		Name:        "The New York Times",
		Description: "American newspaper based in New York City",
		URL:         "https://www.nytimes.com",
		Category:    "general",
		Language:    "en",
		Country:     "us",
	}}
}
