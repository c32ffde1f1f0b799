// Package investigate orchestrates a full run: build the query plan,
// fan out to every registered source, hand the collected findings to the
// correlation engine, and optionally persist and summarize the report.
// Collection is concurrent; correlation is the pure batch core.
package investigate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/dragnet/pkg/correlate"
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/metrics"
	"github.com/codeGROOVE-dev/dragnet/pkg/query"
	"github.com/codeGROOVE-dev/dragnet/pkg/sources"
)

// Store persists completed investigations.
type Store interface {
	SaveReport(ctx context.Context, report *evidence.Report) (int64, error)
}

// Summarizer renders a prose overview of a report.
type Summarizer interface {
	Summarize(ctx context.Context, report *evidence.Report) (string, error)
}

// Result is a completed investigation.
type Result struct {
	Report   *evidence.Report
	Summary  string        // prose overview, empty unless a summarizer ran
	Errors   []string      // per-source failures, informational
	Findings int           // raw findings collected before correlation
	StoreID  int64         // row id when persisted, 0 otherwise
	Duration time.Duration
}

// Investigator runs investigations.
type Investigator struct {
	engine     *correlate.Engine
	cfg        *sources.Config
	store      Store
	summarizer Summarizer
	logger     *slog.Logger
	only       []string
	timeout    time.Duration
}

// Option configures an Investigator.
type Option func(*Investigator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Investigator) { inv.logger = logger }
}

// WithEngine replaces the default correlation engine.
func WithEngine(engine *correlate.Engine) Option {
	return func(inv *Investigator) { inv.engine = engine }
}

// WithSourceConfig sets the shared plumbing passed to collectors.
func WithSourceConfig(cfg *sources.Config) Option {
	return func(inv *Investigator) { inv.cfg = cfg }
}

// WithStore persists each completed report.
func WithStore(store Store) Option {
	return func(inv *Investigator) { inv.store = store }
}

// WithSummarizer adds a prose overview to each report.
func WithSummarizer(s Summarizer) Option {
	return func(inv *Investigator) { inv.summarizer = s }
}

// WithSourceTimeout bounds each collector's run.
func WithSourceTimeout(d time.Duration) Option {
	return func(inv *Investigator) { inv.timeout = d }
}

// WithOnly restricts the run to the named sources.
func WithOnly(names ...string) Option {
	return func(inv *Investigator) { inv.only = names }
}

// New creates an Investigator.
func New(opts ...Option) *Investigator {
	inv := &Investigator{
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.engine == nil {
		inv.engine = correlate.New(correlate.WithLogger(inv.logger))
	}
	return inv
}

// Run investigates one subject end to end.
func (inv *Investigator) Run(ctx context.Context, subject *evidence.Subject) (*Result, error) {
	if subject == nil {
		return nil, evidence.ErrNoSubjectName
	}
	if err := subject.Validate(); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	start := time.Now()
	queries := query.Build(subject)
	selected := inv.selectSources()
	inv.logger.Info("investigation started",
		"subject", subject.Name, "queries", len(queries), "sources", len(selected))

	findings, errs := inv.collect(ctx, subject, queries, selected)

	// Concurrent collection lands in arrival order; fix it so identical
	// inputs produce identical reports.
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Source != findings[j].Source {
			return findings[i].Source < findings[j].Source
		}
		return findings[i].Locator < findings[j].Locator
	})

	report, err := inv.engine.Run(subject, findings)
	if err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	metrics.FindingsRejected.Add(float64(report.Rejected))

	res := &Result{
		Report:   report,
		Errors:   errs,
		Findings: len(findings),
	}

	if inv.store != nil {
		id, err := inv.store.SaveReport(ctx, report)
		if err != nil {
			inv.logger.Warn("report not persisted", "error", err)
			res.Errors = append(res.Errors, "store: "+err.Error())
		} else {
			res.StoreID = id
		}
	}

	if inv.summarizer != nil {
		summary, err := inv.summarizer.Summarize(ctx, report)
		if err != nil {
			inv.logger.Warn("summary failed", "error", err)
			res.Errors = append(res.Errors, "summarize: "+err.Error())
		} else {
			res.Summary = summary
		}
	}

	res.Duration = time.Since(start)
	metrics.InvestigationDuration.Observe(res.Duration.Seconds())
	inv.logger.Info("investigation complete",
		"subject", subject.Name,
		"findings", res.Findings,
		"confirmed", len(report.Confirmed),
		"possible", len(report.Possible),
		"rejected", report.Rejected,
		"elapsed", res.Duration)
	return res, nil
}

// selectSources returns the registered collectors to run, honoring the
// WithOnly restriction. Unknown names are logged and skipped.
func (inv *Investigator) selectSources() []sources.Info {
	if len(inv.only) == 0 {
		return sources.All()
	}

	var selected []sources.Info
	for _, name := range inv.only {
		info := sources.Lookup(name)
		if info == nil {
			inv.logger.Warn("unknown source requested", "source", name)
			continue
		}
		selected = append(selected, info)
	}
	return selected
}

func (inv *Investigator) collect(ctx context.Context, subject *evidence.Subject, queries []query.Query, selected []sources.Info) (findings []evidence.Finding, errs []string) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, info := range selected {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(info sources.Info) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, inv.timeout)
			defer cancel()

			started := time.Now()
			collected, err := sources.Search(srcCtx, info.Name(), subject, queries, inv.cfg)
			if err != nil {
				inv.logger.Warn("source failed", "source", info.Name(), "error", err)
				metrics.SourceErrors.WithLabelValues(info.Name()).Inc()
				mu.Lock()
				errs = append(errs, info.Name()+": "+err.Error())
				mu.Unlock()
			}
			if len(collected) > 0 {
				metrics.FindingsCollected.WithLabelValues(info.Name()).Add(float64(len(collected)))
				mu.Lock()
				findings = append(findings, collected...)
				mu.Unlock()
			}
			inv.logger.Debug("source done",
				"source", info.Name(), "findings", len(collected), "elapsed", time.Since(started))
		}(info)
	}

	wg.Wait()
	sort.Strings(errs)
	return findings, errs
}
