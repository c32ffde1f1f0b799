package auth

import (
	"context"
	"os"
	"sort"
)

// siteEnvVars maps site names to their environment variable configurations.
// Each entry maps env var name to cookie name.
var siteEnvVars = map[string]map[string]string{
	"peoplefinder": {
		"PEOPLEFINDER_SESSION": "session",
		"PEOPLEFINDER_CSRF":    "csrf_token",
	},
	"courtrecords": {
		"COURTRECORDS_SESSION": "session",
	},
}

// EnvSource reads cookies from environment variables.
type EnvSource struct{}

// Cookies returns cookies for the given site from environment variables.
func (EnvSource) Cookies(_ context.Context, site string) (map[string]string, error) {
	envMap, ok := siteEnvVars[site]
	if !ok {
		return nil, nil //nolint:nilnil // no cookies for unknown site is not an error
	}

	cookies := make(map[string]string)
	for envVar, cookieName := range envMap {
		if value := os.Getenv(envVar); value != "" {
			cookies[cookieName] = value
		}
	}

	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// EnvVarsForSite returns the environment variable names for a site,
// sorted for stable help output.
func EnvVarsForSite(site string) []string {
	envMap, ok := siteEnvVars[site]
	if !ok {
		return nil
	}

	vars := make([]string, 0, len(envMap))
	for envVar := range envMap {
		vars = append(vars, envVar)
	}
	sort.Strings(vars)
	return vars
}
