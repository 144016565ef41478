// Package youtube wraps the YouTube Data API v3 and normalizes its responses
// into domain records.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const (
	// BatchSize is the most IDs the videos endpoint accepts per request
	BatchSize = 50

	defaultTimeout       = 30 * time.Second
	defaultMaxItems      = 200
	defaultRegion        = "US"
	defaultRatePerSecond = 5.0
)

// Options configures a Client
type Options struct {
	Endpoint          string  // empty = public API
	Region            string  // category lookup region
	RequestsPerSecond float64 // <= 0 = default
	MaxItems          int     // cap on items fetched per playlist
	HTTPClient        *http.Client
	Now               func() time.Time
}

// Client implements domain.PlaylistAPI against the YouTube Data API.
// The access token is supplied per call and never refreshed here.
type Client struct {
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	svcToken string
	svc      *yt.Service

	categoryMu sync.Mutex
	categories *gocache.Cache // region -> map[id]name
}

// NewClient creates a new YouTube API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRatePerSecond
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = defaultMaxItems
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Endpoint != "" && !strings.HasSuffix(opts.Endpoint, "/") {
		opts.Endpoint += "/"
	}

	return &Client{
		opts:       opts,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:     logger,
		categories: gocache.New(gocache.NoExpiration, 0),
	}
}

// service returns an API service that authenticates with token.
// The most recent service is reused while the token stays the same.
func (c *Client) service(ctx context.Context, token string) (*yt.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.svc != nil && c.svcToken == token {
		return c.svc, nil
	}

	base := http.DefaultTransport
	timeout := defaultTimeout
	if c.opts.HTTPClient != nil {
		if c.opts.HTTPClient.Transport != nil {
			base = c.opts.HTTPClient.Transport
		}
		if c.opts.HTTPClient.Timeout > 0 {
			timeout = c.opts.HTTPClient.Timeout
		}
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   &limitedTransport{limiter: c.limiter, base: base},
		},
	}

	options := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.opts.Endpoint != "" {
		options = append(options, option.WithEndpoint(c.opts.Endpoint))
	}

	svc, err := yt.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	c.svc = svc
	c.svcToken = token
	return svc, nil
}

// limitedTransport waits on a token bucket before each request
type limitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
