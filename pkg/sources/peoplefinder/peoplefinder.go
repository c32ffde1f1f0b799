// Package peoplefinder collects people-directory listings: structured
// records with phones, emails, addresses, and listed relatives. Most
// directories gate the useful fields behind a login, so the collector
// sends session cookies when the operator has provided them.
package peoplefinder

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeGROOVE-dev/dragnet/pkg/auth"
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const (
	source     = "peoplefinder"
	authSite   = "peoplefinder"
	defaultURL = "https://www.peoplefinder.com"
)

type sourceInfo struct{}

func (sourceInfo) Name() string                { return source }
func (sourceInfo) Category() evidence.Category { return evidence.CategoryPeopleSearch }
func (sourceInfo) AuthSite() string            { return authSite }

func init() { sources.Register(sourceInfo{}, Search) }

// Search looks the subject up by name and location. Directories take
// structured lookups, so the query plan is not used here.
func Search(ctx context.Context, subject *evidence.Subject, _ []query.Query, cfg *sources.Config) ([]evidence.Finding, error) {
	if subject == nil || strings.TrimSpace(subject.Name) == "" {
		return nil, nil
	}

	base := cfg.Endpoint(source, defaultURL)
	searchURL := base + "/search?name=" + url.QueryEscape(subject.Name)
	if loc := locationParam(subject); loc != "" {
		searchURL += "&location=" + url.QueryEscape(loc)
	}

	var header http.Header
	if cookies := cfg.SiteCookies(authSite); len(cookies) > 0 {
		header = http.Header{"Cookie": []string{auth.CookieHeader(cookies)}}
	} else {
		cfg.Log().Debug("no session cookies, public view only", "source", source)
	}

	body, err := cfg.Fetcher.Get(ctx, searchURL, header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	baseU, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", source, err)
	}
	return parseDirectory(body, baseU), nil
}

func locationParam(subject *evidence.Subject) string {
	city := strings.TrimSpace(subject.City)
	state := strings.TrimSpace(subject.State)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case state != "":
		return state
	default:
		return city
	}
}

func parseDirectory(body []byte, base *url.URL) []evidence.Finding {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var findings []evidence.Finding
	doc.Find(".person-card").Each(func(_ int, card *goquery.Selection) {
		nameLink := card.Find(".person-name a").First()
		name := strings.TrimSpace(nameLink.Text())
		if name == "" {
			name = strings.TrimSpace(card.Find(".person-name").First().Text())
		}
		if name == "" {
			return
		}

		locator := ""
		if href, ok := nameLink.Attr("href"); ok && href != "" {
			if u, err := url.Parse(href); err == nil {
				locator = base.ResolveReference(u).String()
			}
		}
		if locator == "" {
			return
		}

		f := evidence.Finding{
			Source:   source,
			Category: evidence.CategoryPeopleSearch,
			Title:    name,
			Locator:  locator,
			Address:  strings.TrimSpace(card.Find(".current-address").First().Text()),
		}

		card.Find(".phone").Each(func(_ int, s *goquery.Selection) {
			if p := strings.TrimSpace(s.Text()); p != "" {
				f.Phones = append(f.Phones, p)
			}
		})
		card.Find(".email").Each(func(_ int, s *goquery.Selection) {
			if e := strings.TrimSpace(s.Text()); e != "" {
				f.Emails = append(f.Emails, e)
			}
		})
		card.Find(".relatives a").Each(func(_ int, s *goquery.Selection) {
			if r := strings.TrimSpace(s.Text()); r != "" {
				f.Persons = append(f.Persons, r)
			}
		})

		f.Text = cardSummary(card, f)
		findings = append(findings, f)
	})
	return findings
}

// cardSummary flattens the card into matchable text. The structured
// fields still ride alongside; this is what the name matcher sees.
func cardSummary(card *goquery.Selection, f evidence.Finding) string {
	var parts []string
	if age := strings.TrimSpace(card.Find(".person-age").First().Text()); age != "" {
		parts = append(parts, age)
	}
	if loc := strings.TrimSpace(card.Find(".person-location").First().Text()); loc != "" {
		parts = append(parts, loc)
	}
	if f.Address != "" {
		parts = append(parts, f.Address)
	}
	if len(f.Phones) > 0 {
		parts = append(parts, "Phone: "+strings.Join(f.Phones, ", "))
	}
	if len(f.Persons) > 0 {
		parts = append(parts, "Relatives: "+strings.Join(f.Persons, ", "))
	}
	return strings.Join(parts, ". ")
}
