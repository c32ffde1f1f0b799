// Package auth provides login cookies for session-gated record sites.
// People-search aggregators hide most fields behind a login; a cookie
// from the operator's own browser session unlocks them. Missing cookies
// degrade a source to its public view, they never fail an investigation.
package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
)

// NewCookieJar creates an http.CookieJar populated with the given cookies for a domain.
func NewCookieJar(domain string, cookies map[string]string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse("https://" + domain)
	if err != nil {
		return nil, err
	}

	var httpCookies []*http.Cookie
	for name, value := range cookies {
		if value != "" {
			httpCookies = append(httpCookies, &http.Cookie{
				Name:   name,
				Value:  value,
				Domain: "." + domain,
				Path:   "/",
			})
		}
	}

	jar.SetCookies(u, httpCookies)
	return jar, nil
}

// CookieHeader renders cookies as a Cookie header value, sorted by name
// so identical cookie sets produce identical request keys.
func CookieHeader(cookies map[string]string) string {
	pairs := make([]string, 0, len(cookies))
	for name, value := range cookies {
		if value != "" {
			pairs = append(pairs, name+"="+value)
		}
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "; ")
}

// Source represents a source of authentication cookies.
type Source interface {
	// Cookies returns cookies for the given site, or nil if unavailable.
	Cookies(ctx context.Context, site string) (map[string]string, error)
}

// ChainSources returns cookies from the first source that provides them.
func ChainSources(ctx context.Context, site string, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		cookies, err := src.Cookies(ctx, site)
		if err != nil {
			return nil, err
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had cookies, but this is not an error
}
