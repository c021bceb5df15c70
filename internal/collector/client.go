package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockRanker/internal/model"
)

const (
	DefaultLSEBaseURL     = "https://api.londonstockexchange.com/api"
	DefaultWidgetsBaseURL = "https://refinitiv-widgets.financial.com"
	DefaultIndex          = "ftse-100"
	DefaultPages          = 5
	DefaultTimeout        = 30 * time.Second
	DefaultRateLimit      = 5 // requests per second
)

// LSEClient talks to the London Stock Exchange site API for index
// constituents and ticker translation, and to the Refinitiv widget API it
// embeds for login, price history and quote info.
type LSEClient struct {
	lseURL     string
	widgetsURL string
	index      string
	pages      int
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	now        func() time.Time
	log        zerolog.Logger

	mu   sync.Mutex
	rics map[string]string
}

// Option configures an LSEClient.
type Option func(*LSEClient)

// WithBaseURLs overrides both API roots.
func WithBaseURLs(lseURL, widgetsURL string) Option {
	return func(c *LSEClient) {
		if lseURL != "" {
			c.lseURL = lseURL
		}
		if widgetsURL != "" {
			c.widgetsURL = widgetsURL
		}
	}
}

// WithIndex sets the index whose constituents are listed and how many
// result pages to read.
func WithIndex(index string, pages int) Option {
	return func(c *LSEClient) {
		if index != "" {
			c.index = index
		}
		if pages > 0 {
			c.pages = pages
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *LSEClient) {
		c.log = log.With().Str("component", "lse_client").Logger()
	}
}

// WithRateLimit throttles outgoing requests; zero disables throttling.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *LSEClient) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithRetryPolicy sets the policy used around the price-history request.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *LSEClient) {
		c.retry = p
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *LSEClient) {
		c.httpClient = hc
	}
}

// WithClock sets the time source used for the history date range.
func WithClock(now func() time.Time) Option {
	return func(c *LSEClient) {
		c.now = now
	}
}

// NewLSEClient creates a client with optional proxy support.
func NewLSEClient(proxyURL string, opts ...Option) *LSEClient {
	c := &LSEClient{
		lseURL:     DefaultLSEBaseURL,
		widgetsURL: DefaultWidgetsBaseURL,
		index:      DefaultIndex,
		pages:      DefaultPages,
		httpClient: NewHTTPClient(proxyURL, DefaultTimeout),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		retry:      DefaultRetryPolicy(),
		now:        time.Now,
		log:        zerolog.Nop(),
		rics:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LSEClient) Name() string { return "lse" }

// NewHTTPClient builds an http.Client that goes through proxyURL when set.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// do sends req and returns the body of a 2xx response. Transport failures
// and other statuses are network errors, except 401 and 403 which are auth
// errors.
func (c *LSEClient) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w: %w", model.ErrNetwork, err)
		}
	}
	return doRequest(c.httpClient, req.WithContext(ctx), c.log)
}

func doRequest(hc *http.Client, req *http.Request, log zerolog.Logger) ([]byte, error) {
	start := time.Now()
	resp, err := hc.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Debug().Err(err).Str("path", req.URL.Path).Dur("elapsed", elapsed).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %w", req.Method, req.URL.Path, model.ErrNetwork, err)
	}
	log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("request")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s %s: status %d: %w", req.Method, req.URL.Path, resp.StatusCode, model.ErrAuth)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s %s: status %d, body: %s: %w",
			req.Method, req.URL.Path, resp.StatusCode, truncate(body, 200), model.ErrNetwork)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
