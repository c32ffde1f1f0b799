// Package websearch collects general web search results. Each query in
// the plan becomes one results page; each result becomes one finding
// carrying the query's provenance kind.
package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const (
	source      = "websearch"
	defaultURL  = "https://html.duckduckgo.com/html/"
	maxPerQuery = 10
)

type sourceInfo struct{}

func (sourceInfo) Name() string                { return source }
func (sourceInfo) Category() evidence.Category { return evidence.CategorySearch }
func (sourceInfo) AuthSite() string            { return "" }

func init() { sources.Register(sourceInfo{}, Search) }

// Search runs every query against the search endpoint. Failed queries
// are logged and skipped; the error return fires only when nothing at
// all could be fetched.
func Search(ctx context.Context, _ *evidence.Subject, queries []query.Query, cfg *sources.Config) ([]evidence.Finding, error) {
	logger := cfg.Log()
	base := cfg.Endpoint(source, defaultURL)

	var findings []evidence.Finding
	seen := make(map[string]bool)
	failures := 0
	for _, q := range queries {
		searchURL := base + "?q=" + url.QueryEscape(q.Text)
		body, err := cfg.Fetcher.Get(ctx, searchURL, nil)
		if err != nil {
			failures++
			logger.Warn("search query failed", "source", source, "query", q.Text, "error", err)
			continue
		}

		for _, f := range parseResults(body, q.Kind) {
			if seen[f.Locator] {
				continue
			}
			seen[f.Locator] = true
			findings = append(findings, f)
		}
	}

	if failures == len(queries) && len(queries) > 0 {
		return findings, fmt.Errorf("%s: all %d queries failed", source, failures)
	}
	return findings, nil
}

func parseResults(body []byte, kind evidence.QueryKind) []evidence.Finding {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var findings []evidence.Finding
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		locator := resolveRedirect(href)
		if locator == "" || (title == "" && snippet == "") {
			return true
		}

		findings = append(findings, evidence.Finding{
			Source:   source,
			Category: evidence.CategorySearch,
			Query:    kind,
			Title:    title,
			Text:     snippet,
			Locator:  locator,
		})
		return len(findings) < maxPerQuery
	})
	return findings
}

// resolveRedirect unwraps the engine's click-tracking redirect so the
// locator is the destination page, not the tracker.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}
