// Package obituaries collects obituary and memorial notices. Obituary
// text names survivors, which makes it the richest single source of
// relative names; the collector pulls the full notice when it can
// instead of settling for the search snippet.
package obituaries

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
	source     = "obituaries"
	defaultURL = "https://obituaries.example.com"

	// maxDetail caps how many full notices are fetched per search.
	maxDetail = 5
)

type sourceInfo struct{}

func (sourceInfo) Name() string                { return source }
func (sourceInfo) Category() evidence.Category { return evidence.CategoryNews }
func (sourceInfo) AuthSite() string            { return "" }

func init() { sources.Register(sourceInfo{}, Search) }

// Search looks for notices naming the subject. Relatives share the
// surname, so the notice may be about someone else entirely and still be
// evidence; scoring sorts that out downstream.
func Search(ctx context.Context, subject *evidence.Subject, _ []query.Query, cfg *sources.Config) ([]evidence.Finding, error) {
	if subject == nil || strings.TrimSpace(subject.Name) == "" {
		return nil, nil
	}

	base := cfg.Endpoint(source, defaultURL)
	searchURL := base + "/search?q=" + url.QueryEscape(subject.Name)
	if city := strings.TrimSpace(subject.City); city != "" {
		searchURL += "&location=" + url.QueryEscape(city)
	}

	body, err := cfg.Fetcher.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	baseU, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", source, err)
	}

	findings := parseListing(body, baseU)
	for i := range findings {
		if i >= maxDetail {
			break
		}
		text, err := fetchNotice(ctx, cfg, findings[i].Locator)
		if err != nil {
			cfg.Log().Debug("notice fetch failed, keeping snippet", "source", source, "url", findings[i].Locator, "error", err)
			continue
		}
		if text != "" {
			findings[i].Text = text
		}
	}
	return findings, nil
}

func parseListing(body []byte, base *url.URL) []evidence.Finding {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var findings []evidence.Finding
	doc.Find(".obit-card").Each(func(_ int, card *goquery.Selection) {
		link := card.Find(".obit-title a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}

		findings = append(findings, evidence.Finding{
			Source:   source,
			Category: evidence.CategoryNews,
			Title:    title,
			Text:     strings.TrimSpace(card.Find(".obit-snippet").First().Text()),
			Locator:  base.ResolveReference(u).String(),
		})
	})
	return findings
}

// fetchNotice pulls the full obituary text from a notice page.
func fetchNotice(ctx context.Context, cfg *sources.Config, noticeURL string) (string, error) {
	body, err := cfg.Fetcher.Get(ctx, noticeURL, nil)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var paragraphs []string
	doc.Find(".obit-text p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n"), nil
}
