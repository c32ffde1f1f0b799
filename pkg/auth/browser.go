package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
	"github.com/browserutils/kooky/browser/firefox"
)

// siteDomains maps site names to the cookie domains their default
// endpoints live on. Collectors pointed at custom endpoints can pass the
// bare domain itself as the site argument.
var siteDomains = map[string]string{
	"peoplefinder": "peoplefinder.com",
}

// siteEssentialCookies maps site names to their required cookie names.
var siteEssentialCookies = map[string][]string{
	"peoplefinder": {"session", "csrf_token"},
}

// BrowserSource reads cookies from browser cookie stores.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns cookies for the given site from browser stores.
func (s *BrowserSource) Cookies(ctx context.Context, site string) (map[string]string, error) {
	domain, ok := siteDomains[site]
	if !ok {
		if !strings.Contains(site, ".") {
			return nil, nil //nolint:nilnil // no cookies for unknown site is not an error
		}
		domain = site
	}

	s.logger.DebugContext(ctx, "reading browser cookies", "site", site, "domain", domain)

	// Firefox profiles first: their cookie store needs no OS keychain.
	cookies := s.tryFirefoxProfiles(ctx, domain, site)
	if len(cookies) > 0 {
		return cookies, nil
	}

	// Fall back to kooky's automatic browser detection
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "site", site, "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}

	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}

	return s.filterEssentialCookies(kookies, site), nil
}

// tryFirefoxProfiles attempts to read cookies from Firefox profiles.
func (s *BrowserSource) tryFirefoxProfiles(ctx context.Context, domain, site string) map[string]string {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}

	profileDirs := []string{
		filepath.Join(home, ".mozilla", "firefox"),
		filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles"),
	}

	for _, dir := range profileDirs {
		pattern := filepath.Join(dir, "*", "cookies.sqlite")
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}

		for _, f := range matches {
			kookies, err := firefox.ReadCookies(ctx, f, kooky.Valid, kooky.DomainHasSuffix(domain))
			if err == nil && len(kookies) > 0 {
				s.logger.Debug("found Firefox cookies",
					"profile", filepath.Base(filepath.Dir(f)),
					"site", site,
					"count", len(kookies))
				return s.filterEssentialCookies(kookies, site)
			}
		}
	}

	return nil
}

// filterEssentialCookies extracts only the required cookies for a site.
func (s *BrowserSource) filterEssentialCookies(kookies []*kooky.Cookie, site string) map[string]string {
	essential, ok := siteEssentialCookies[site]
	if !ok {
		// No filter defined, return all cookies
		cookies := make(map[string]string)
		for _, c := range kookies {
			cookies[c.Name] = c.Value
		}
		return cookies
	}

	essentialSet := make(map[string]bool)
	for _, name := range essential {
		essentialSet[name] = true
	}

	cookies := make(map[string]string)
	for _, c := range kookies {
		if essentialSet[c.Name] {
			cookies[c.Name] = c.Value
		}
	}

	var found, missing []string
	for _, name := range essential {
		if _, ok := cookies[name]; ok {
			found = append(found, name)
		} else {
			missing = append(missing, name)
		}
	}

	if len(found) > 0 {
		s.logger.Info("browser cookies found", "site", site, "keys", found)
	}
	if len(missing) > 0 {
		s.logger.Info("browser cookies missing", "site", site, "keys", missing)
	}

	return cookies
}
