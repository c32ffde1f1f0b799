package obituaries

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/fetch"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

const listingPage = `<html><body>
<div class="obit-card">
  <h3 class="obit-title"><a href="/notice/moira-petrie-2024">Moira Petrie Obituary (1948-2024)</a></h3>
  <p class="obit-snippet">Moira Petrie, 76, of Springfield, passed away peacefully.</p>
</div>
<div class="obit-card">
  <h3 class="obit-title"><a href="/notice/broken-page">Edward Petrie Obituary</a></h3>
  <p class="obit-snippet">Edward Petrie, 81, formerly of Dayton.</p>
</div>
</body></html>`

const noticePage = `<html><body>
<div class="obit-text">
  <p>Moira Petrie, 76, of Springfield, passed away peacefully on March 3.</p>
  <p>She is survived by her brother Walter Petrie and her daughter Amy Quill.</p>
</div>
</body></html>`

func testConfig(srvURL string, client *http.Client) *sources.Config {
	return &sources.Config{
		Fetcher: fetch.NewClient(
			fetch.WithHTTPClient(client),
			fetch.WithLimiter(fetch.NewLimiter(1000, 10)),
		),
		BaseURL: map[string]string{source: srvURL},
	}
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Walter Petrie" {
			t.Errorf("q = %q, want Walter Petrie", got)
		}
		fmt.Fprint(w, listingPage)
	})
	mux.HandleFunc("/notice/moira-petrie-2024", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, noticePage)
	})
	mux.HandleFunc("/notice/broken-page", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	subject := &evidence.Subject{Name: "Walter Petrie"}
	findings, err := Search(context.Background(), subject, nil, testConfig(srv.URL, srv.Client()))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}

	first := findings[0]
	if first.Category != evidence.CategoryNews {
		t.Errorf("category = %q", first.Category)
	}
	if first.Title != "Moira Petrie Obituary (1948-2024)" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Locator != srv.URL+"/notice/moira-petrie-2024" {
		t.Errorf("locator = %q", first.Locator)
	}
	if !strings.Contains(first.Text, "survived by her brother Walter Petrie") {
		t.Errorf("full notice text not fetched: %q", first.Text)
	}

	// The broken detail page falls back to the listing snippet.
	if findings[1].Text != "Edward Petrie, 81, formerly of Dayton." {
		t.Errorf("fallback text = %q", findings[1].Text)
	}
}

func TestSearchNoSubject(t *testing.T) {
	findings, err := Search(context.Background(), nil, nil, testConfig("http://unused", nil))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if findings != nil {
		t.Errorf("findings = %v, want nil", findings)
	}
}

func TestRegistered(t *testing.T) {
	info := sources.Lookup(source)
	if info == nil {
		t.Fatal("obituaries not registered")
	}
	if info.Category() != evidence.CategoryNews {
		t.Errorf("category = %q", info.Category())
	}
}
