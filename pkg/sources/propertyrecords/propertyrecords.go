// Package propertyrecords collects county parcel records: owner names,
// situs addresses, and ownership years. Counties contract different
// records vendors, so the response shape varies; field lookups try the
// known vendor paths in order instead of assuming one schema.
package propertyrecords

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const (
	source     = "propertyrecords"
	defaultURL = "https://assessor.example.gov"
)

type sourceInfo struct{}

func (sourceInfo) Name() string                { return source }
func (sourceInfo) Category() evidence.Category { return evidence.CategoryProperty }
func (sourceInfo) AuthSite() string            { return "" }

func init() { sources.Register(sourceInfo{}, Search) }

// Search queries the assessor API by owner name.
func Search(ctx context.Context, subject *evidence.Subject, _ []query.Query, cfg *sources.Config) ([]evidence.Finding, error) {
	if subject == nil || strings.TrimSpace(subject.Name) == "" {
		return nil, nil
	}

	base := cfg.Endpoint(source, defaultURL)
	searchURL := base + "/api/parcels?owner=" + url.QueryEscape(subject.Name)
	if city := strings.TrimSpace(subject.City); city != "" {
		searchURL += "&city=" + url.QueryEscape(city)
	}

	body, err := cfg.Fetcher.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	records := recordArray(body)
	findings := make([]evidence.Finding, 0, len(records))
	for _, rec := range records {
		f, ok := toFinding(rec)
		if !ok {
			cfg.Log().Debug("parcel record without address or owners skipped", "source", source)
			continue
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// recordArray finds the record list wherever the vendor put it.
func recordArray(body []byte) []gjson.Result {
	for _, path := range []string{"records", "results", "parcels", "data.records"} {
		if arr := gjson.GetBytes(body, path); arr.IsArray() {
			return arr.Array()
		}
	}
	return nil
}

func toFinding(rec gjson.Result) (evidence.Finding, bool) {
	address := firstString(rec, "situs_address", "property_address", "address.full", "address")
	owners := ownerNames(rec)
	if address == "" || len(owners) == 0 {
		return evidence.Finding{}, false
	}

	parts := []string{"Owners: " + strings.Join(owners, ", ")}
	res := residency(rec)
	if res != nil {
		parts = append(parts, fmt.Sprintf("Ownership %d to %d", res.First, res.Last))
	}
	if use := firstString(rec, "land_use", "property_class"); use != "" {
		parts = append(parts, use)
	}

	return evidence.Finding{
		Source:    source,
		Category:  evidence.CategoryProperty,
		Title:     address,
		Text:      strings.Join(parts, ". "),
		Locator:   locator(rec),
		Address:   address,
		Persons:   owners,
		Residency: res,
	}, true
}

// locator prefers the vendor URL, then the parcel number, and mints an
// identifier as a last resort so deduplication has something to key on.
func locator(rec gjson.Result) string {
	if u := firstString(rec, "url", "record_url", "link"); u != "" {
		return u
	}
	if pin := firstString(rec, "parcel_id", "pin", "apn"); pin != "" {
		return "parcel:" + pin
	}
	return "parcel:" + uuid.NewString()
}

var ownerSplitPattern = regexp.MustCompile(`(?i)\s*(?:&|\band\b|;)\s*`)

func ownerNames(rec gjson.Result) []string {
	var owners []string
	add := func(name string) {
		if name = strings.TrimSpace(name); name != "" {
			owners = append(owners, name)
		}
	}

	for _, path := range []string{"owners", "owner_names"} {
		arr := rec.Get(path)
		if !arr.IsArray() {
			continue
		}
		arr.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				add(v.Get("name").String())
			} else {
				add(v.String())
			}
			return true
		})
		if len(owners) > 0 {
			return owners
		}
	}

	// Single-field vendors list co-owners as "A & B" or "A and B".
	for _, part := range ownerSplitPattern.Split(firstString(rec, "owner", "owner_name", "deed_holder"), -1) {
		add(part)
	}
	return owners
}

func residency(rec gjson.Result) *evidence.YearRange {
	from := firstInt(rec, "ownership_from", "deed_year")
	if from == 0 {
		if d := firstString(rec, "last_sale_date", "deed_date", "sale_date"); len(d) >= 4 {
			if y, err := strconv.Atoi(d[:4]); err == nil {
				from = y
			}
		}
	}
	if from == 0 {
		return nil
	}

	to := firstInt(rec, "ownership_to")
	if to == 0 {
		// Still on the deed as far as the county knows.
		to = time.Now().Year()
	}
	return &evidence.YearRange{First: from, Last: to}
}

func firstString(rec gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := rec.Get(p); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(rec gjson.Result, paths ...string) int {
	for _, p := range paths {
		if v := rec.Get(p); v.Exists() && v.Int() != 0 {
			return int(v.Int())
		}
	}
	return 0
}
