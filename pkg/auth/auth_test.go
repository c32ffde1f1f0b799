package auth

import (
	"context"
	"testing"
)

func TestNewCookieJar(t *testing.T) {
	cookies := map[string]string{
		"session":    "abc123",
		"csrf_token": "xyz789",
	}

	jar, err := NewCookieJar("records.example.com", cookies)
	if err != nil {
		t.Fatalf("NewCookieJar failed: %v", err)
	}

	if jar == nil {
		t.Fatal("jar should not be nil")
	}
}

func TestNewCookieJarEmpty(t *testing.T) {
	jar, err := NewCookieJar("records.example.com", map[string]string{})
	if err != nil {
		t.Fatalf("NewCookieJar failed: %v", err)
	}

	if jar == nil {
		t.Fatal("jar should not be nil even with empty cookies")
	}
}

func TestEnvSource(t *testing.T) {
	t.Setenv("PEOPLEFINDER_SESSION", "test-session")
	t.Setenv("PEOPLEFINDER_CSRF", "test-csrf")

	src := EnvSource{}
	cookies, err := src.Cookies(context.Background(), "peoplefinder")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}

	if cookies["session"] != "test-session" {
		t.Errorf("session = %q, want %q", cookies["session"], "test-session")
	}
	if cookies["csrf_token"] != "test-csrf" {
		t.Errorf("csrf_token = %q, want %q", cookies["csrf_token"], "test-csrf")
	}
}

func TestEnvSourceUnknownSite(t *testing.T) {
	src := EnvSource{}
	cookies, err := src.Cookies(context.Background(), "unknown-site")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}

	if cookies != nil {
		t.Error("cookies should be nil for unknown site")
	}
}

func TestEnvSourceNoCookies(t *testing.T) {
	t.Setenv("PEOPLEFINDER_SESSION", "")
	t.Setenv("PEOPLEFINDER_CSRF", "")

	src := EnvSource{}
	cookies, err := src.Cookies(context.Background(), "peoplefinder")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}

	if cookies != nil {
		t.Error("cookies should be nil when env vars not set")
	}
}

func TestStaticSource(t *testing.T) {
	input := map[string]string{
		"session":    "abc123",
		"csrf_token": "xyz789",
	}

	src := NewStaticSource(input)
	cookies, err := src.Cookies(context.Background(), "any-site")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}

	if len(cookies) != 2 {
		t.Errorf("got %d cookies, want 2", len(cookies))
	}
	if cookies["session"] != "abc123" {
		t.Errorf("session = %q, want %q", cookies["session"], "abc123")
	}

	// Verify it's a copy
	cookies["session"] = "modified"
	cookies2, err := src.Cookies(context.Background(), "any-site")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}
	if cookies2["session"] != "abc123" {
		t.Error("StaticSource should return copies")
	}
}

func TestStaticSourceEmpty(t *testing.T) {
	src := NewStaticSource(nil)
	cookies, err := src.Cookies(context.Background(), "any-site")
	if err != nil {
		t.Fatalf("Cookies failed: %v", err)
	}

	if cookies != nil {
		t.Error("cookies should be nil for empty source")
	}
}

func TestChainSources(t *testing.T) {
	// First source returns nil
	src1 := NewStaticSource(nil)

	// Second source returns cookies
	src2 := NewStaticSource(map[string]string{"session": "from-src2"})

	// Third source also has cookies (should not be reached)
	src3 := NewStaticSource(map[string]string{"session": "from-src3"})

	cookies, err := ChainSources(context.Background(), "any", src1, src2, src3)
	if err != nil {
		t.Fatalf("ChainSources failed: %v", err)
	}

	if cookies["session"] != "from-src2" {
		t.Errorf("session = %q, want %q", cookies["session"], "from-src2")
	}
}

func TestChainSourcesAllEmpty(t *testing.T) {
	src1 := NewStaticSource(nil)
	src2 := NewStaticSource(nil)

	cookies, err := ChainSources(context.Background(), "any", src1, src2)
	if err != nil {
		t.Fatalf("ChainSources failed: %v", err)
	}

	if cookies != nil {
		t.Error("cookies should be nil when all sources empty")
	}
}

func TestEnvVarsForSite(t *testing.T) {
	vars := EnvVarsForSite("peoplefinder")
	if len(vars) == 0 {
		t.Error("should return env vars for peoplefinder")
	}

	varSet := make(map[string]bool)
	for _, v := range vars {
		varSet[v] = true
	}

	if !varSet["PEOPLEFINDER_SESSION"] {
		t.Error("should include PEOPLEFINDER_SESSION")
	}
}

func TestEnvVarsForUnknownSite(t *testing.T) {
	vars := EnvVarsForSite("unknown")
	if vars != nil {
		t.Error("should return nil for unknown site")
	}
}

func TestCookieHeader(t *testing.T) {
	header := CookieHeader(map[string]string{
		"session":    "abc",
		"csrf_token": "xyz",
		"empty":      "",
	})
	want := "csrf_token=xyz; session=abc"
	if header != want {
		t.Errorf("CookieHeader = %q, want %q", header, want)
	}

	if got := CookieHeader(nil); got != "" {
		t.Errorf("CookieHeader(nil) = %q, want empty", got)
	}
}
