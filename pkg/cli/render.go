package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/investigate"
)

// maxQuotedText bounds how much finding text the dossier quotes per entry.
const maxQuotedText = 300

type jsonResult struct {
	Report   *evidence.Report `json:"report"`
	Summary  string           `json:"summary,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
	Duration string           `json:"duration"`
	Findings int              `json:"findings_collected"`
	StoreID  int64            `json:"store_id,omitempty"`
}

// writeResult renders the result as JSON (default) or a markdown dossier,
// to stdout or to the given file.
func writeResult(result *investigate.Result, markdown bool, outPath string) error {
	var buf bytes.Buffer
	if markdown {
		renderMarkdown(&buf, result)
	} else if err := renderJSON(&buf, result); err != nil {
		return err
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func renderJSON(w io.Writer, result *investigate.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonResult{
		Report:   result.Report,
		Summary:  result.Summary,
		Errors:   result.Errors,
		Findings: result.Findings,
		StoreID:  result.StoreID,
		Duration: result.Duration.Round(time.Millisecond).String(),
	}); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func renderMarkdown(w io.Writer, result *investigate.Result) {
	report := result.Report

	fmt.Fprintf(w, "# Dossier: %s\n\n", report.Subject.Name)
	if loc := subjectLocation(&report.Subject); loc != "" {
		fmt.Fprintf(w, "%s\n\n", loc)
	}
	fmt.Fprintf(w, "Collected %d findings in %s: %d confirmed, %d possible, %d rejected.\n\n",
		result.Findings, result.Duration.Round(time.Millisecond),
		len(report.Confirmed), len(report.Possible), report.Rejected)

	if result.Summary != "" {
		fmt.Fprintf(w, "## Summary\n\n%s\n\n", result.Summary)
	}

	writeMatchSection(w, "Confirmed findings", report.Confirmed)
	writeMatchSection(w, "Possible findings", report.Possible)

	if len(report.Relatives) > 0 {
		fmt.Fprint(w, "## Relatives and associates\n\n")
		fmt.Fprint(w, "| Name | Relation | Confidence | Shared addresses | Overlap years |\n")
		fmt.Fprint(w, "|------|----------|-----------:|-----------------:|--------------:|\n")
		for _, rel := range report.Relatives {
			fmt.Fprintf(w, "| %s | %s | %.2f | %d | %d |\n",
				rel.Name, rel.Relation, rel.Confidence, rel.SharedAddresses, rel.OverlapYears)
		}
		fmt.Fprint(w, "\n")
	}

	if len(report.Addresses) > 0 {
		fmt.Fprint(w, "## Correlated addresses\n\n")
		for _, addr := range report.Addresses {
			fmt.Fprintf(w, "- **%s** (%.2f)", addr.Address, addr.Confidence)
			if len(addr.Owners) > 0 {
				fmt.Fprintf(w, " listed: %s", strings.Join(addr.Owners, ", "))
			}
			if addr.MatchedSubject != "" {
				fmt.Fprintf(w, "; matched subject as %q", addr.MatchedSubject)
			}
			fmt.Fprint(w, "\n")
		}
		fmt.Fprint(w, "\n")
	}

	if len(result.Errors) > 0 {
		fmt.Fprint(w, "## Source errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "- %s\n", e)
		}
		fmt.Fprint(w, "\n")
	}
}

func writeMatchSection(w io.Writer, title string, matches []evidence.MatchResult) {
	if len(matches) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s (%d)\n\n", title, len(matches))
	for _, m := range matches {
		heading := m.Finding.Title
		if heading == "" {
			heading = m.Finding.Locator
		}
		fmt.Fprintf(w, "### %s\n\n", heading)
		fmt.Fprintf(w, "- Confidence: %.2f (%s)\n", m.Confidence, strings.Join(m.Reasons, ", "))
		fmt.Fprintf(w, "- Source: %s (%s)\n", m.Finding.Source, m.Finding.Category)
		fmt.Fprintf(w, "- Locator: %s\n", m.Finding.Locator)
		if m.Finding.Text != "" {
			fmt.Fprintf(w, "\n> %s\n", snippet(m.Finding.Text, maxQuotedText))
		}
		fmt.Fprint(w, "\n")
	}
}

func subjectLocation(subject *evidence.Subject) string {
	parts := make([]string, 0, 2)
	if subject.City != "" {
		parts = append(parts, subject.City)
	}
	if subject.State != "" {
		parts = append(parts, subject.State)
	}
	return strings.Join(parts, ", ")
}

func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
