package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/dragnet/pkg/correlate"
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/investigate"
)

var (
	corrSubject     subjectFlags
	corrWeightsFile string
	corrMarkdown    bool
	corrOut         string
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <findings-file> [name]",
	Short: "Score an existing findings file offline",
	Long: `Correlate runs the scoring engine over findings collected earlier,
without touching the network. The file is JSON or YAML, either a bare
list of findings or a document with a top-level "findings" key.

Example:
  dragnet correlate findings.json --subject-file subject.yaml
  dragnet correlate findings.yaml "John Smith" --city Springfield --markdown`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCorrelate,
}

func init() {
	rootCmd.AddCommand(correlateCmd)

	registerSubjectFlags(correlateCmd.Flags(), &corrSubject)
	correlateCmd.Flags().StringVar(&corrWeightsFile, "weights", "", "YAML file overriding scoring weights")
	correlateCmd.Flags().BoolVar(&corrMarkdown, "markdown", false, "render a markdown dossier instead of JSON")
	correlateCmd.Flags().StringVar(&corrOut, "out", "", "write output to a file instead of stdout")
}

func runCorrelate(_ *cobra.Command, args []string) error {
	logger := newLogger()

	subject, err := buildSubject(args[1:], &corrSubject)
	if err != nil {
		return err
	}
	findings, err := loadFindings(args[0])
	if err != nil {
		return err
	}
	weights, err := loadWeights(corrWeightsFile)
	if err != nil {
		return err
	}

	engine := correlate.New(correlate.WithLogger(logger), correlate.WithWeights(weights))
	started := time.Now()
	report, err := engine.Run(subject, findings)
	if err != nil {
		return err
	}

	result := &investigate.Result{
		Report:   report,
		Findings: len(findings),
		Duration: time.Since(started),
	}
	return writeResult(result, corrMarkdown, corrOut)
}

type findingsFile struct {
	Findings []evidence.Finding `json:"findings" yaml:"findings"`
}

// loadFindings reads findings from a JSON or YAML file.
func loadFindings(path string) ([]evidence.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read findings file: %w", err)
	}

	unmarshal := json.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var list []evidence.Finding
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc findingsFile
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse findings file: %w", err)
	}
	return doc.Findings, nil
}
