// Package fetch is the HTTP layer the source collectors share: response
// caching with thundering herd prevention, bounded retry, per-domain
// politeness rate limiting, and robots.txt compliance. Errors are cached
// alongside bodies so a failing host is not hammered across an
// investigation's dozens of queries.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"

	"github.com/codeGROOVE-dev/dragnet/pkg/metrics"
)

// UserAgent identifies dragnet to the sites it queries.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// maxBodyBytes caps how much of a response body is read. Search result
// pages and record APIs fit comfortably; anything larger is not evidence.
const maxBodyBytes = 2 << 20

// ErrRobotsDisallowed marks a fetch skipped for robots.txt compliance.
var ErrRobotsDisallowed = errors.New("robots.txt disallows this path")

// Stats tracks cache hit/miss statistics.
type Stats struct {
	Hits   int64
	Misses int64
}

var globalStats atomic.Pointer[Stats]

func init() {
	globalStats.Store(&Stats{})
}

// CacheStats returns the current cache statistics.
func CacheStats() Stats {
	return *globalStats.Load()
}

// ResetStats resets the cache statistics.
func ResetStats() {
	globalStats.Store(&Stats{})
}

func recordHit() {
	metrics.FetchCacheHits.Inc()
	for {
		old := globalStats.Load()
		updated := &Stats{Hits: old.Hits + 1, Misses: old.Misses}
		if globalStats.CompareAndSwap(old, updated) {
			return
		}
	}
}

func recordMiss() {
	metrics.FetchCacheMisses.Inc()
	for {
		old := globalStats.Load()
		updated := &Stats{Hits: old.Hits, Misses: old.Misses + 1}
		if globalStats.CompareAndSwap(old, updated) {
			return
		}
	}
}

// Cacher allows external cache implementations to be shared across
// collectors.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// NewCache creates a Cache with disk persistence at ~/.cache/dragnet.
func NewCache(ttl time.Duration) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewCacheWithPath(ttl, filepath.Join(cacheDir, "dragnet"))
}

// NewNullCache creates a Cache with no persistence: gets miss, sets discard.
func NewNullCache() *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte]())
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return &Cache{TieredCache: tc, ttl: 0}
}

// NewCacheWithPath creates a Cache with disk persistence at the given path.
func NewCacheWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte]("dragnet", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// URLToKey converts a URL to a cache key using a SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Client is the shared fetcher: one per investigation, passed to every
// source collector.
type Client struct {
	cache   Cacher
	httpc   *http.Client
	limiter *Limiter
	robots  *Robots
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache sets the response cache. Without one every call fetches.
func WithCache(cache Cacher) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLimiter replaces the default per-domain rate limiter.
func WithLimiter(l *Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRobots enables robots.txt checking before each fetch.
func WithRobots(r *Robots) Option {
	return func(c *Client) { c.robots = r }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a fetch client. Defaults: no cache, no robots
// checking, one request per second per domain with a small burst.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: NewLimiter(1.0, 3),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a URL through the cache, the rate limiter, and the robots
// checker. Extra headers, when given, are added to the request.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	crawlDelay := time.Duration(0)
	if c.robots != nil {
		allowed, delay := c.robots.CanFetch(ctx, rawURL)
		if !allowed {
			metrics.RobotsDenied.Inc()
			c.logger.Debug("fetch skipped", "url", rawURL, "reason", "robots.txt")
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	// Auth state changes what a page returns, so it is part of the key.
	cacheKey := req.URL.String()
	if req.Header.Get("Cookie") != "" || (c.httpc.Jar != nil && len(c.httpc.Jar.Cookies(req.URL)) > 0) {
		cacheKey += "|auth"
	}

	if c.cache == nil {
		recordMiss()
		return c.doFetch(ctx, req, crawlDelay)
	}

	var wasFetched bool
	data, err := c.cache.GetSet(ctx, URLToKey(cacheKey), func(ctx context.Context) ([]byte, error) {
		wasFetched = true
		recordMiss()
		c.logger.Debug("cache miss", "url", req.URL.String())
		body, fetchErr := c.doFetch(ctx, req, crawlDelay)
		if fetchErr != nil {
			// Cache errors too, so a dead host is not hammered by the
			// rest of the query fan-out.
			var httpErr *HTTPError
			if errors.As(fetchErr, &httpErr) {
				return fmt.Appendf(nil, "ERROR:%d", httpErr.StatusCode), nil
			}
			return fmt.Appendf(nil, "NETERR:%s", fetchErr.Error()), nil
		}
		return body, nil
	}, c.cache.TTL())

	if !wasFetched {
		recordHit()
		c.logger.Debug("cache hit", "url", req.URL.String())
	}
	if err != nil {
		return nil, err
	}

	s := string(data)
	if errCode, found := strings.CutPrefix(s, "ERROR:"); found {
		code, _ := strconv.Atoi(errCode) //nolint:errcheck // 0 is acceptable default
		return nil, &HTTPError{StatusCode: code, URL: req.URL.String()}
	}
	if errMsg, found := strings.CutPrefix(s, "NETERR:"); found {
		return nil, fmt.Errorf("cached network error: %s", errMsg)
	}
	return data, nil
}

func (c *Client) doFetch(ctx context.Context, req *http.Request, crawlDelay time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	return retry.DoWithData(
		func() ([]byte, error) {
			if err := c.limiter.WaitWithDelay(ctx, req.URL.String(), crawlDelay); err != nil {
				return nil, err
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}

			return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying HTTP request", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
}

// isRetryableError returns true for transient errors worth retrying.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // 4xx errors (except 429) are permanent
		}
	}
	// Network errors, timeouts, DNS failures are retryable.
	return true
}
