package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

func sampleReport() *evidence.Report {
	return &evidence.Report{
		Subject: evidence.Subject{Name: "John Smith", City: "Springfield", State: "IL"},
		Confirmed: []evidence.MatchResult{
			{
				Finding: evidence.Finding{
					Source:  "peoplefinder",
					Title:   "John Smith, Age 52",
					Locator: "https://www.peoplefinder.com/p/john-smith-1",
				},
				Confidence: 0.80,
				Class:      evidence.ClassConfirmed,
				Reasons:    []string{"name:exact", "factor:phone"},
			},
		},
		Relatives: []evidence.RelativeLink{
			{Name: "Mary Smith", Relation: evidence.RelationSpouse, Confidence: 0.70},
		},
		Rejected: 2,
	}
}

func completionResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-1",
		Object: "chat.completion",
		Model:  openai.GPT4oMini,
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
		},
		Usage: openai.Usage{TotalTokens: 120},
	}
}

func TestSummarize(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(completionResponse("  Evidence strongly places John Smith in Springfield.  ")); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New("test-key", WithBaseURL(server.URL), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := c.Summarize(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "Evidence strongly places John Smith in Springfield." {
		t.Errorf("summary = %q, want trimmed content", summary)
	}

	if len(gotReq.Messages) != 2 {
		t.Fatalf("request had %d messages, want 2", len(gotReq.Messages))
	}
	prompt := gotReq.Messages[1].Content
	for _, want := range []string{
		"John Smith, Springfield, IL",
		"Confirmed findings: 1",
		"Rejected findings: 2",
		"https://www.peoplefinder.com/p/john-smith-1",
		"Mary Smith (spouse_or_partner",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if gotReq.Temperature > 0.3 {
		t.Errorf("temperature = %v, want low", gotReq.Temperature)
	}
}

func TestSummarizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	}))
	defer server.Close()

	c, err := New("test-key", WithBaseURL(server.URL), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Summarize(context.Background(), sampleReport()); err == nil {
		t.Error("Summarize() expected error on 500")
	}
}

func TestSummarizeEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := completionResponse("")
		resp.Choices = nil
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Summarize(context.Background(), sampleReport()); err == nil {
		t.Error("Summarize() expected error on empty choices")
	}
}

func TestSummarizeNilReport(t *testing.T) {
	c, err := New("test-key")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Summarize(context.Background(), nil); err == nil {
		t.Error("Summarize(nil) expected error")
	}
}

func TestNewNoAPIKey(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("New(\"\") error = %v, want ErrNoAPIKey", err)
	}
}

func TestBuildPromptCapsFindings(t *testing.T) {
	report := &evidence.Report{Subject: evidence.Subject{Name: "John Smith"}}
	for i := range 15 {
		report.Possible = append(report.Possible, evidence.MatchResult{
			Finding:    evidence.Finding{Title: fmt.Sprintf("Result %d", i), Locator: fmt.Sprintf("https://example.com/%d", i)},
			Confidence: 0.40,
			Class:      evidence.ClassPossible,
		})
	}

	prompt := buildPrompt(report)
	if !strings.Contains(prompt, "and 5 more") {
		t.Errorf("prompt should cap listed findings:\n%s", prompt)
	}
	if strings.Contains(prompt, "Result 12") {
		t.Error("prompt listed findings past the cap")
	}
}
