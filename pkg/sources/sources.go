// Package sources defines the collector contract and registry.
// Each collector package registers itself via Register() in an init()
// function; pkg/investigate runs every registered collector with shared
// plumbing. Collectors return whatever findings they can and report
// errors without aborting anything upstream.
package sources

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/fetch"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
)

// ErrUnknownSource is returned when dispatching to an unregistered collector.
var ErrUnknownSource = errors.New("unknown source")

// Info describes a registered collector.
type Info interface {
	// Name returns the collector identifier (e.g. "websearch").
	Name() string

	// Category returns the evidence category this collector produces.
	Category() evidence.Category

	// AuthSite returns the cookie-lookup key for session-gated sites,
	// or "" when a login never changes what the site returns.
	AuthSite() string
}

// Config carries shared plumbing into collectors at search time.
type Config struct {
	// Fetcher is the shared HTTP layer. Collectors must not build their own.
	Fetcher *fetch.Client

	Logger *slog.Logger

	// BaseURL overrides a collector's default endpoint, keyed by collector
	// name. Used for self-hosted mirrors and tests.
	BaseURL map[string]string

	// Cookies holds session cookies keyed by auth site.
	Cookies map[string]map[string]string
}

// Endpoint returns the configured base URL for a collector, or fallback.
func (c *Config) Endpoint(name, fallback string) string {
	if c != nil && c.BaseURL[name] != "" {
		return c.BaseURL[name]
	}
	return fallback
}

// SiteCookies returns the session cookies for an auth site, or nil.
func (c *Config) SiteCookies(site string) map[string]string {
	if c == nil {
		return nil
	}
	return c.Cookies[site]
}

// Log returns the configured logger or the default one.
func (c *Config) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// SearchFunc runs a subject's queries against one site.
type SearchFunc func(ctx context.Context, subject *evidence.Subject, queries []query.Query, cfg *Config) ([]evidence.Finding, error)

type entry struct {
	info   Info
	search SearchFunc
}

var (
	registryMu sync.RWMutex
	registry   []entry
	byName     = make(map[string]*entry)
)

// Register adds a collector to the global registry.
// This should be called from each collector package's init() function.
func Register(info Info, search SearchFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := info.Name()
	if _, exists := byName[name]; exists {
		panic("source already registered: " + name)
	}

	e := &entry{info: info, search: search}
	registry = append(registry, *e)
	byName[name] = e
}

// All returns all registered collectors in registration order.
func All() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Info, len(registry))
	for i, e := range registry {
		result[i] = e.info
	}
	return result
}

// Lookup returns the collector with the given name, or nil if not found.
func Lookup(name string) Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if e := byName[name]; e != nil {
		return e.info
	}
	return nil
}

// Search dispatches to the named collector.
func Search(ctx context.Context, name string, subject *evidence.Subject, queries []query.Query, cfg *Config) ([]evidence.Finding, error) {
	registryMu.RLock()
	e := byName[name]
	registryMu.RUnlock()

	if e == nil || e.search == nil {
		return nil, ErrUnknownSource
	}
	return e.search(ctx, subject, queries, cfg)
}
