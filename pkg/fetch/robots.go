package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Robots checks robots.txt before fetching. Parsed files are cached per
// host for the lifetime of the checker.
type Robots struct {
	cache     map[string]*robotstxt.RobotsData
	mu        sync.Mutex
	httpc     *http.Client
	logger    *slog.Logger
	userAgent string
}

// NewRobots creates a robots.txt checker. A nil client gets a short
// timeout of its own; robots.txt should never stall an investigation.
func NewRobots(httpc *http.Client, logger *slog.Logger) *Robots {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Robots{
		cache:     make(map[string]*robotstxt.RobotsData),
		httpc:     httpc,
		logger:    logger,
		userAgent: UserAgent,
	}
}

// CanFetch reports whether rawURL may be fetched and any crawl-delay the
// host requests. Unparseable URLs and unfetchable robots.txt files allow
// the fetch; compliance is best effort.
func (r *Robots) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, 0
	}

	data, err := r.dataFor(ctx, u)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing fetch", "host", u.Host, "error", err)
		return true, 0
	}

	allowed := data.TestAgent(u.Path, r.userAgent)
	var delay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay
}

func (r *Robots) dataFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[u.Host]; ok {
		return data, nil
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // intentional

	var data *robotstxt.RobotsData
	if resp.StatusCode == http.StatusNotFound {
		// No robots.txt means everything is allowed.
		data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, nil)
	} else {
		data, err = robotstxt.FromResponse(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.cache[u.Host] = data
	return data, nil
}
