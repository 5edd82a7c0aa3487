package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iceymoss/go-newsfeed/internal/core"
)

const (
	newsAPIBaseURL      = "https://newsapi.org/v2"
	newsAPIEverything   = "/everything"
	newsAPISources      = "/sources"
	newsAPIDefaultQuery = "technology OR business OR sports"
)

type newsAPIArticlesResponse struct {
	Status   string            `json:"status"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Articles []json.RawMessage `json:"articles"`
}

type newsAPISourcesResponse struct {
	Status  string       `json:"status"`
	Sources []SourceInfo `json:"sources"`
}

// NewsAPI talks to newsapi.org; the key travels as the apiKey query parameter.
type NewsAPI struct {
	cfg    Config
	client *client
}

func NewNewsAPI(cfg Config, deps Deps) (*NewsAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", core.ProviderNewsAPI, ErrMissingAPIKey)
	}
	cfg = cfg.withDefaults(newsAPIBaseURL)
	return &NewsAPI{
		cfg:    cfg,
		client: newClient(core.ProviderNewsAPI, "apiKey", cfg, deps),
	}, nil
}

func (p *NewsAPI) Name() string {
	return core.ProviderNewsAPI
}

func (p *NewsAPI) FetchArticles(ctx context.Context, params Params) []json.RawMessage {
	query := Params{
		"language": "en",
		"sortBy":   "publishedAt",
	}.Merge(params)
	capPageSize(query, "pageSize", p.cfg.MaxResults)

	// /everything 至少需要 q、sources、domains 之一
	if query["q"] == "" && query["sources"] == "" && query["domains"] == "" {
		query["q"] = newsAPIDefaultQuery
	}

	var resp newsAPIArticlesResponse
	err := p.client.get(ctx, newsAPIEverything, query, &resp, func() int { return len(resp.Articles) })
	if err != nil {
		return []json.RawMessage{}
	}
	return resp.Articles
}

func (p *NewsAPI) SearchArticles(ctx context.Context, query string, filters Params) []json.RawMessage {
	return p.FetchArticles(ctx, Params{"q": query}.Merge(filters))
}

func (p *NewsAPI) Sources(ctx context.Context) []SourceInfo {
	var resp newsAPISourcesResponse
	err := p.client.get(ctx, newsAPISources, Params{"language": "en"}, &resp, func() int { return len(resp.Sources) })
	if err != nil {
		return []SourceInfo{}
	}
	return resp.Sources
}
