package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/okian/critic/pkg/logger"
	"github.com/okian/critic/pkg/metrics"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultTimeout  = 10 * time.Second
	defaultRPS      = 5
	maxBodyBytes    = 4 << 20
)

// Config holds client settings. Without credentials the client sends
// unauthenticated requests, which is only useful against a test server.
type Config struct {
	BaseURL           string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the OAuth2 client, e.g. with one that injects a
// fixed token.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// Client fetches artist and album metadata. Concurrent requests for the same
// resource share one upstream call.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
	group   singleflight.Group
	logger  logger.Logger
}

// New creates a catalog client. Access tokens are obtained with the OAuth2
// client-credentials flow and refreshed by the transport.
func New(ctx context.Context, cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		timeout: cfg.Timeout,
		logger:  logger.Nop(),
	}

	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		c.http = cc.Client(ctx)
	} else {
		c.http = &http.Client{}
	}
	c.http.Timeout = cfg.Timeout

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Artist fetches an artist by catalog id.
func (c *Client) Artist(ctx context.Context, id string) (Artist, error) {
	v, err := c.shared(ctx, "artist", id, func(ctx context.Context) (any, error) {
		var a Artist
		err := c.get(ctx, "artist", id, "/artists/"+url.PathEscape(id), &a)
		return a, err
	})
	if err != nil {
		return Artist{}, err
	}
	return v.(Artist), nil
}

// Album fetches an album, including its track listing, by catalog id.
func (c *Client) Album(ctx context.Context, id string) (Album, error) {
	v, err := c.shared(ctx, "album", id, func(ctx context.Context) (any, error) {
		var a Album
		err := c.get(ctx, "album", id, "/albums/"+url.PathEscape(id), &a)
		return a, err
	})
	if err != nil {
		return Album{}, err
	}
	return v.(Album), nil
}

// shared runs fetch once for all concurrent callers of the same resource.
// The fetch is detached from any single caller's cancellation and bounded by
// the client timeout; each caller stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, resource, id string, fetch func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(resource+":"+id, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, &FetchError{Resource: resource, ID: id, Err: ctx.Err()}
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (c *Client) get(ctx context.Context, resource, id, path string, target any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordCatalogRequest(resource, outcome, float64(time.Since(start).Milliseconds()))
	}()

	fail := func(status int, cause error) error {
		return &FetchError{Resource: resource, ID: id, StatusCode: status, Err: cause}
	}

	if id == "" {
		return fail(0, fmt.Errorf("empty id"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fail(0, fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fail(0, fmt.Errorf("initializing request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "response body close failed", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug(ctx, "catalog request rejected",
			logger.String("resource", resource),
			logger.String("id", id),
			logger.Int("status", resp.StatusCode),
			logger.String("body", truncate(string(body), 256)),
		)
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", strconv.Itoa(resp.StatusCode)))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fail(0, fmt.Errorf("decoding %s: %w", resource, err))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
