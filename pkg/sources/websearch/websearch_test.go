package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/fetch"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const resultsPage = `<html><body>
<div class="result">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fnews%2Fgala&rut=abc">Smith honored at charity gala</a></h2>
  <a class="result__snippet">John Smith of Springfield was honored at the annual gala.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://example.org/directory/jsmith">Directory listing</a></h2>
  <a class="result__snippet">J. Smith, Springfield IL.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="">Empty link</a></h2>
  <a class="result__snippet">No destination.</a>
</div>
</body></html>`

func testConfig(t *testing.T, srvURL string, client *http.Client) *sources.Config {
	t.Helper()
	return &sources.Config{
		Fetcher: fetch.NewClient(
			fetch.WithHTTPClient(client),
			fetch.WithLimiter(fetch.NewLimiter(1000, 10)),
		),
		BaseURL: map[string]string{source: srvURL + "/html/"},
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		fmt.Fprint(w, resultsPage)
	}))
	defer srv.Close()

	queries := []query.Query{{Text: `"John Smith"`, Kind: evidence.QueryWithName}}
	findings, err := Search(context.Background(), nil, queries, testConfig(t, srv.URL, srv.Client()))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}

	first := findings[0]
	if first.Locator != "https://example.com/news/gala" {
		t.Errorf("locator = %q, want unwrapped redirect", first.Locator)
	}
	if first.Title != "Smith honored at charity gala" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Text != "John Smith of Springfield was honored at the annual gala." {
		t.Errorf("text = %q", first.Text)
	}
	if first.Query != evidence.QueryWithName {
		t.Errorf("query kind = %q, want %q", first.Query, evidence.QueryWithName)
	}
	if first.Category != evidence.CategorySearch {
		t.Errorf("category = %q, want %q", first.Category, evidence.CategorySearch)
	}

	if findings[1].Locator != "https://example.org/directory/jsmith" {
		t.Errorf("second locator = %q", findings[1].Locator)
	}
}

func TestSearchDeduplicatesAcrossQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage)
	}))
	defer srv.Close()

	queries := []query.Query{
		{Text: `"John Smith"`, Kind: evidence.QueryWithName},
		{Text: `"John Smith" Springfield`, Kind: evidence.QueryWithName},
	}
	findings, err := Search(context.Background(), nil, queries, testConfig(t, srv.URL, srv.Client()))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(findings) != 2 {
		t.Errorf("got %d findings, want 2 (same results from both queries)", len(findings))
	}
}

func TestSearchGenericKindCarried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, resultsPage)
	}))
	defer srv.Close()

	queries := []query.Query{{Text: "jsmith88", Kind: evidence.QueryGeneric}}
	findings, err := Search(context.Background(), nil, queries, testConfig(t, srv.URL, srv.Client()))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, f := range findings {
		if f.Query != evidence.QueryGeneric {
			t.Errorf("query kind = %q, want %q", f.Query, evidence.QueryGeneric)
		}
	}
}

func TestSearchAllQueriesFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	queries := []query.Query{{Text: `"John Smith"`, Kind: evidence.QueryWithName}}
	findings, err := Search(context.Background(), nil, queries, testConfig(t, srv.URL, srv.Client()))
	if err == nil {
		t.Error("want error when every query fails")
	}
	if len(findings) != 0 {
		t.Errorf("got %d findings, want 0", len(findings))
	}
}

func TestRegistered(t *testing.T) {
	info := sources.Lookup(source)
	if info == nil {
		t.Fatal("websearch not registered")
	}
	if info.Category() != evidence.CategorySearch {
		t.Errorf("category = %q, want %q", info.Category(), evidence.CategorySearch)
	}
	if info.AuthSite() != "" {
		t.Errorf("auth site = %q, want none", info.AuthSite())
	}
}
