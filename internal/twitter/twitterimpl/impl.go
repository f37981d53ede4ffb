package twitterimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/ratelimit"
	"github.com/orgball2608/tweet-fetcher/internal/twitter"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"github.com/orgball2608/tweet-fetcher/pkg/retry"
	"go.uber.org/fx"
)

const userAgent = "tweet-fetcher/1.0"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type TwitterImpl struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
	maxResults  int
	maxPages    int
	limiter     ratelimit.Limiter
	retry       retry.Config
	logger      logger.Logger
}

func New(opts Opts) *TwitterImpl {
	cfg := opts.Config.Twitter

	maxResults := cfg.MaxResults
	// The timeline endpoint accepts 5..100.
	if maxResults < 5 {
		maxResults = 5
	}
	if maxResults > 100 {
		maxResults = 100
	}
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	return &TwitterImpl{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     strings.TrimRight(cfg.ApiUrl, "/"),
		bearerToken: cfg.BearerToken,
		maxResults:  maxResults,
		maxPages:    maxPages,
		limiter:     ratelimit.New(cfg.RequestsPerMinute, time.Minute, 1),
		retry:       retry.DefaultConfig(),
		logger:      opts.Logger.WithComponent("TwitterClient"),
	}
}

var _ twitter.Client = (*TwitterImpl)(nil)

// getJSON performs a paced, retried GET and decodes the body into out.
// Only network errors and 5xx responses are retried.
func (t *TwitterImpl) getJSON(ctx context.Context, operation, path string, query url.Values, out any) error {
	endpoint := t.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempt := func() error {
		if err := t.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+t.bearerToken)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %s: %w", twitter.ErrUnavailable, operation, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return retry.Permanent(twitter.ErrUserNotFound)
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return retry.Permanent(fmt.Errorf("%w: status %d", twitter.ErrUnauthorized, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests:
			return retry.Permanent(fmt.Errorf("%w: reset at %s", twitter.ErrRateLimited, resp.Header.Get("x-rate-limit-reset")))
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s returned status %d", twitter.ErrUnavailable, operation, resp.StatusCode)
		default:
			return retry.Permanent(fmt.Errorf("%s: unexpected status %d: %s", operation, resp.StatusCode, truncate(body, 200)))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("%s: decode response: %w", operation, err))
		}
		return nil
	}

	return retry.Do(ctx, t.logger, operation, attempt, t.retry)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
