// Package courtrecords collects docket entries from a court records
// search API. Dockets are indexed by clerks, not written about the
// subject, so the engine treats this category with stricter name
// matching than prose sources.
package courtrecords

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/codeGROOVE-dev/dragnet/pkg/auth"
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const (
	source     = "courtrecords"
	authSite   = "courtrecords"
	defaultURL = "https://dockets.example.gov"
)

type sourceInfo struct{}

func (sourceInfo) Name() string                { return source }
func (sourceInfo) Category() evidence.Category { return evidence.CategoryCourt }
func (sourceInfo) AuthSite() string            { return authSite }

func init() { sources.Register(sourceInfo{}, Search) }

type docketCase struct {
	CaseNumber string   `json:"case_number"`
	Caption    string   `json:"caption"`
	Court      string   `json:"court"`
	Filed      string   `json:"filed"`
	Parties    []string `json:"parties"`
	Summary    string   `json:"summary"`
	URL        string   `json:"url"`
}

// Search queries the docket API by party name. The API takes structured
// party lookups, so the query plan is not used here.
func Search(ctx context.Context, subject *evidence.Subject, _ []query.Query, cfg *sources.Config) ([]evidence.Finding, error) {
	if subject == nil || strings.TrimSpace(subject.Name) == "" {
		return nil, nil
	}

	base := cfg.Endpoint(source, defaultURL)
	searchURL := base + "/api/cases?party=" + url.QueryEscape(subject.Name)
	if state := strings.TrimSpace(subject.State); state != "" {
		searchURL += "&state=" + url.QueryEscape(state)
	}

	var header http.Header
	if cookies := cfg.SiteCookies(authSite); len(cookies) > 0 {
		header = http.Header{"Cookie": []string{auth.CookieHeader(cookies)}}
	}

	body, err := cfg.Fetcher.Get(ctx, searchURL, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var payload struct {
		Cases []docketCase `json:"cases"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", source, err)
	}

	findings := make([]evidence.Finding, 0, len(payload.Cases))
	for _, c := range payload.Cases {
		f := toFinding(c)
		if f.Locator == "" {
			cfg.Log().Debug("docket entry without case number or URL skipped", "source", source)
			continue
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func toFinding(c docketCase) evidence.Finding {
	title := strings.TrimSpace(c.Caption)
	if c.CaseNumber != "" {
		if title == "" {
			title = c.CaseNumber
		} else {
			title += " (" + c.CaseNumber + ")"
		}
	}

	var parts []string
	if c.Summary != "" {
		parts = append(parts, strings.TrimSpace(c.Summary))
	}
	if len(c.Parties) > 0 {
		parts = append(parts, "Parties: "+strings.Join(c.Parties, "; "))
	}
	if c.Court != "" {
		parts = append(parts, c.Court)
	}
	if c.Filed != "" {
		parts = append(parts, "Filed "+c.Filed)
	}

	locator := strings.TrimSpace(c.URL)
	if locator == "" && c.CaseNumber != "" {
		// Case numbers are stable clerk-assigned keys.
		locator = "docket:" + c.CaseNumber
	}

	return evidence.Finding{
		Source:   source,
		Category: evidence.CategoryCourt,
		Title:    title,
		Text:     strings.Join(parts, ". "),
		Locator:  locator,
		Persons:  c.Parties,
	}
}
