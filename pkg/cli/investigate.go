package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeGROOVE-dev/dragnet/pkg/auth"
	"github.com/codeGROOVE-dev/dragnet/pkg/correlate"
	"github.com/codeGROOVE-dev/dragnet/pkg/fetch"
	"github.com/codeGROOVE-dev/dragnet/pkg/investigate"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
	"github.com/codeGROOVE-dev/dragnet/pkg/store"
	"github.com/codeGROOVE-dev/dragnet/pkg/summarize"
)

var (
	invSubject       subjectFlags
	invOnly          []string
	invSourceTimeout time.Duration
	invNoCache       bool
	invCacheTTL      time.Duration
	invNoBrowser     bool
	invSave          bool
	invDB            string
	invWeightsFile   string
	invSummary       bool
	invModel         string
	invMarkdown      bool
	invOut           string
)

var investigateCmd = &cobra.Command{
	Use:   "investigate [name]",
	Short: "Search live sources and score what they return",
	Long: `Investigate builds search queries for the subject, fans them out to every
registered source, and scores each finding by how strongly the evidence
ties it to the subject.

Example:
  dragnet investigate "John Smith" --city Springfield --state IL
  dragnet investigate --subject-file subject.yaml --save --markdown
  dragnet investigate "John Smith" --phone 555-123-4567 --only websearch,obituaries`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvestigate,
}

func init() {
	rootCmd.AddCommand(investigateCmd)

	registerSubjectFlags(investigateCmd.Flags(), &invSubject)

	investigateCmd.Flags().StringSliceVar(&invOnly, "only", nil, "restrict the run to the named sources")
	investigateCmd.Flags().DurationVar(&invSourceTimeout, "source-timeout", 30*time.Second, "time limit per source")
	investigateCmd.Flags().BoolVar(&invNoCache, "no-cache", false, "disable HTTP caching (enabled by default)")
	investigateCmd.Flags().DurationVar(&invCacheTTL, "cache-ttl", 24*time.Hour, "HTTP cache time-to-live")
	investigateCmd.Flags().BoolVar(&invNoBrowser, "no-browser", false, "disable reading login cookies from browser stores")
	investigateCmd.Flags().BoolVar(&invSave, "save", false, "persist the report to the local database")
	investigateCmd.Flags().StringVar(&invDB, "db", "", "database path (default: $HOME/.dragnet/dragnet.db)")
	investigateCmd.Flags().StringVar(&invWeightsFile, "weights", "", "YAML file overriding scoring weights")
	investigateCmd.Flags().BoolVar(&invSummary, "summary", false, "generate a prose summary (requires OPENAI_API_KEY)")
	investigateCmd.Flags().StringVar(&invModel, "model", "", "model for summary generation")
	investigateCmd.Flags().BoolVar(&invMarkdown, "markdown", false, "render a markdown dossier instead of JSON")
	investigateCmd.Flags().StringVar(&invOut, "out", "", "write output to a file instead of stdout")

	_ = viper.BindPFlag("db", investigateCmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("model", investigateCmd.Flags().Lookup("model"))
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	subject, err := buildSubject(args, &invSubject)
	if err != nil {
		return err
	}
	weights, err := loadWeights(invWeightsFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var cache fetch.Cacher
	switch {
	case invNoCache:
		cache = fetch.NewNullCache()
	default:
		c, err := fetch.NewCache(invCacheTTL)
		if err != nil {
			logger.Warn("cache unavailable, fetching without cache", "error", err)
			cache = fetch.NewNullCache()
		} else {
			cache = c
		}
	}

	cfg := &sources.Config{
		Fetcher: fetch.NewClient(fetch.WithCache(cache), fetch.WithLogger(logger)),
		Logger:  logger,
		BaseURL: viper.GetStringMapString("endpoints"),
		Cookies: resolveCookies(ctx, logger),
	}

	opts := []investigate.Option{
		investigate.WithLogger(logger),
		investigate.WithSourceConfig(cfg),
		investigate.WithSourceTimeout(invSourceTimeout),
		investigate.WithEngine(correlate.New(correlate.WithLogger(logger), correlate.WithWeights(weights))),
	}
	if len(invOnly) > 0 {
		opts = append(opts, investigate.WithOnly(invOnly...))
	}

	if invSave {
		path := dbPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
		db, err := store.Open(path, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close store", "error", err)
			}
		}()
		opts = append(opts, investigate.WithStore(db))
	}

	if invSummary {
		key := viper.GetString("openai_api_key")
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		s, err := summarize.New(key,
			summarize.WithModel(viper.GetString("model")),
			summarize.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("summarizer: %w (set OPENAI_API_KEY)", err)
		}
		opts = append(opts, investigate.WithSummarizer(s))
	}

	result, err := investigate.New(opts...).Run(ctx, subject)
	if err != nil {
		return err
	}
	return writeResult(result, invMarkdown, invOut)
}

// resolveCookies gathers login cookies for every registered source that
// uses them. Missing cookies leave the source on its public view.
func resolveCookies(ctx context.Context, logger *slog.Logger) map[string]map[string]string {
	cookies := make(map[string]map[string]string)
	configured := configCookies()

	for _, info := range sources.All() {
		site := info.AuthSite()
		if site == "" {
			continue
		}
		if _, ok := cookies[site]; ok {
			continue
		}

		chain := []auth.Source{auth.EnvSource{}}
		if !invNoBrowser {
			chain = append(chain, auth.NewBrowserSource(logger))
		}
		if static := configured[site]; len(static) > 0 {
			chain = append(chain, auth.NewStaticSource(static))
		}

		got, err := auth.ChainSources(ctx, site, chain...)
		if err != nil {
			logger.Debug("cookie lookup failed", "site", site, "error", err)
			continue
		}
		if len(got) > 0 {
			cookies[site] = got
		}
	}
	return cookies
}

// configCookies reads per-site cookies from the config file:
//
//	cookies:
//	  peoplefinder:
//	    session: abc123
func configCookies() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for site, raw := range viper.GetStringMap("cookies") {
		pairs, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m := make(map[string]string, len(pairs))
		for name, v := range pairs {
			if s, ok := v.(string); ok {
				m[name] = s
			}
		}
		if len(m) > 0 {
			out[site] = m
		}
	}
	return out
}

func dbPath() string {
	if p := viper.GetString("db"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "dragnet.db"
	}
	return filepath.Join(home, ".dragnet", "dragnet.db")
}
