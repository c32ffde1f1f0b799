package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
)

type fakeInfo struct{ name string }

func (f fakeInfo) Name() string              { return f.name }
func (fakeInfo) Category() evidence.Category { return evidence.CategorySearch }
func (fakeInfo) AuthSite() string            { return "" }

func TestRegisterAndLookup(t *testing.T) {
	Register(fakeInfo{name: "fake-a"}, func(_ context.Context, _ *evidence.Subject, _ []query.Query, _ *Config) ([]evidence.Finding, error) {
		return []evidence.Finding{{Source: "fake-a", Locator: "x"}}, nil
	})

	if Lookup("fake-a") == nil {
		t.Fatal("registered source not found")
	}
	if Lookup("never-registered") != nil {
		t.Error("lookup of unknown source should be nil")
	}

	found := false
	for _, info := range All() {
		if info.Name() == "fake-a" {
			found = true
		}
	}
	if !found {
		t.Error("All() missing registered source")
	}

	findings, err := Search(context.Background(), "fake-a", nil, nil, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(findings) != 1 || findings[0].Source != "fake-a" {
		t.Errorf("findings = %v", findings)
	}
}

func TestSearchUnknownSource(t *testing.T) {
	_, err := Search(context.Background(), "never-registered", nil, nil, nil)
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	Register(fakeInfo{name: "fake-dup"}, nil)
	Register(fakeInfo{name: "fake-dup"}, nil)
}

func TestConfigDefaults(t *testing.T) {
	var cfg *Config
	if got := cfg.Endpoint("websearch", "https://fallback"); got != "https://fallback" {
		t.Errorf("Endpoint on nil config = %q", got)
	}
	if cfg.SiteCookies("peoplefinder") != nil {
		t.Error("SiteCookies on nil config should be nil")
	}
	if cfg.Log() == nil {
		t.Error("Log on nil config should return the default logger")
	}

	cfg = &Config{BaseURL: map[string]string{"websearch": "http://mirror"}}
	if got := cfg.Endpoint("websearch", "https://fallback"); got != "http://mirror" {
		t.Errorf("Endpoint override = %q", got)
	}
	if got := cfg.Endpoint("other", "https://fallback"); got != "https://fallback" {
		t.Errorf("Endpoint fallback = %q", got)
	}
}
