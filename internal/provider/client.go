package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/audit"
	"github.com/iceymoss/go-newsfeed/internal/metrics"
	"github.com/iceymoss/go-newsfeed/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Deps are the collaborators every adapter shares.
type Deps struct {
	HTTPClient *http.Client
	Recorder   audit.Recorder
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Clock      utils.Clock
}

// client performs audited GET requests against one provider.
type client struct {
	provider string
	baseURL  string
	keyParam string
	apiKey   string
	http     *http.Client
	recorder audit.Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      utils.Clock
	limiter  *rate.Limiter // nil 表示不限速
}

func newClient(provider, keyParam string, cfg Config, deps Deps) *client {
	hc := deps.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	rec := deps.Recorder
	if rec == nil {
		rec = audit.Nop{}
	}
	l := deps.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &client{
		provider: provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		keyParam: keyParam,
		apiKey:   cfg.APIKey,
		http:     hc,
		recorder: rec,
		metrics:  deps.Metrics,
		logger:   l.With(zap.String("provider", provider)),
		now:      utils.OrSystem(deps.Clock),
		limiter:  newLimiter(cfg.RatePerMinute),
	}
}

// newLimiter spreads perMinute calls evenly over a minute; 0 disables limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// get calls endpoint with params plus the api key and decodes the JSON body
// into out. count reports how many items were decoded, for the audit record.
func (c *client) get(ctx context.Context, endpoint string, params Params, out any, count func() int) error {
	var status int
	err := c.wait(ctx, endpoint)
	start := c.now()
	if err == nil {
		status, err = c.do(ctx, endpoint, params, out)
	}
	elapsed := c.now().Sub(start)

	items := 0
	if err == nil {
		items = count()
	}
	rec := audit.CallRecord{
		Provider:   c.provider,
		Endpoint:   endpoint,
		StatusCode: status,
		LatencyMs:  elapsed.Milliseconds(),
		ItemCount:  items,
		At:         start,
	}
	if err != nil {
		rec.Error = err.Error()
		if rec.StatusCode == 0 {
			rec.StatusCode = http.StatusInternalServerError
		}
	}
	c.recorder.Record(ctx, rec)
	c.metrics.ObserveProviderCall(c.provider, err != nil, elapsed, items)

	if err != nil {
		c.logger.Error("provider fetch failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.StatusCode),
			zap.Error(err))
	}
	return err
}

func (c *client) wait(ctx context.Context, endpoint string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", endpoint, err)
	}
	return nil
}

func (c *client) do(ctx context.Context, endpoint string, params Params, out any) (int, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set(c.keyParam, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error 会带上完整 URL，里面有 api key
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return 0, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return resp.StatusCode, nil
}
