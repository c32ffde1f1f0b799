// Package summarize turns a finished report into short display prose via
// the OpenAI chat API. The summary is presentation only: scoring and
// classification never depend on it, and an investigation without an API
// key simply skips this step.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// maxPromptFindings caps how many findings the prompt lists. Past that,
// counts carry the signal and more rows just burn tokens.
const maxPromptFindings = 10

// Client generates report summaries.
type Client struct {
	client    *openai.Client
	logger    *slog.Logger
	baseURL   string
	model     string
	maxTokens int
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a custom API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a summarizer client.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		logger:    slog.Default(),
		model:     openai.GPT4oMini,
		maxTokens: 600,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c, nil
}

// Summarize produces a short prose summary of the report.
func (c *Client) Summarize(ctx context.Context, report *evidence.Report) (string, error) {
	if report == nil {
		return "", errors.New("nil report")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You summarize open-source intelligence reports. Describe what the evidence " +
					"supports and how strongly. Confidence scores are estimates, so never state that a " +
					"finding definitely refers to the subject. Cite only the locators listed in the prompt.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(report),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("summary generated", "model", c.model, "tokens", resp.Usage.TotalTokens, "chars", len(summary))
	return summary, nil
}

func buildPrompt(report *evidence.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s", report.Subject.Name)
	if report.Subject.City != "" {
		fmt.Fprintf(&b, ", %s", report.Subject.City)
	}
	if report.Subject.State != "" {
		fmt.Fprintf(&b, ", %s", report.Subject.State)
	}
	fmt.Fprintf(&b, "\nConfirmed findings: %d\nPossible findings: %d\nRejected findings: %d\n",
		len(report.Confirmed), len(report.Possible), report.Rejected)

	writeFindings(&b, "Confirmed", report.Confirmed)
	writeFindings(&b, "Possible", report.Possible)

	if len(report.Relatives) > 0 {
		b.WriteString("\nInferred relatives and associates:\n")
		for _, rel := range report.Relatives {
			fmt.Fprintf(&b, "- %s (%s, confidence %.2f)\n", rel.Name, rel.Relation, rel.Confidence)
		}
	}

	if len(report.Addresses) > 0 {
		b.WriteString("\nCorrelated addresses:\n")
		for _, addr := range report.Addresses {
			fmt.Fprintf(&b, "- %s (confidence %.2f", addr.Address, addr.Confidence)
			if len(addr.Owners) > 0 {
				fmt.Fprintf(&b, ", listed: %s", strings.Join(addr.Owners, ", "))
			}
			b.WriteString(")\n")
		}
	}

	b.WriteString("\nWrite a 3-5 sentence summary of what this evidence suggests about the subject. " +
		"Lead with the strongest corroborated facts, mention notable relatives or addresses, " +
		"and flag how much remains uncertain.")
	return b.String()
}

func writeFindings(b *strings.Builder, label string, matches []evidence.MatchResult) {
	if len(matches) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s evidence:\n", label)
	for i, m := range matches {
		if i >= maxPromptFindings {
			fmt.Fprintf(b, "- and %d more\n", len(matches)-maxPromptFindings)
			break
		}
		title := m.Finding.Title
		if title == "" {
			title = m.Finding.Locator
		}
		fmt.Fprintf(b, "- %s (%s, confidence %.2f, %s)\n",
			title, m.Finding.Locator, m.Confidence, strings.Join(m.Reasons, " "))
	}
}
