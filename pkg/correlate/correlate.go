// Package correlate decides which findings actually refer to the subject.
// It runs name matching, corroboration scoring, deduplication, relative
// extraction, and address correlation as one synchronous batch over an
// investigation's findings.
//
// Basic usage:
//
//	engine := correlate.New()
//	report, err := engine.Run(subject, findings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(report.Confirmed), "confirmed")
//
// The engine performs no I/O and keeps no state between runs. Re-running
// on a grown finding set recomputes every derived record from scratch, so
// callers may invoke it again whenever slow sources deliver more
// findings; same inputs give the same report whatever the input order.
package correlate

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/codeGROOVE-dev/dragnet/pkg/address"
	"github.com/codeGROOVE-dev/dragnet/pkg/dedup"
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/namematch"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
	"github.com/codeGROOVE-dev/dragnet/pkg/relatives"
	"github.com/codeGROOVE-dev/dragnet/pkg/score"
)

// Engine wires the pipeline stages together.
type Engine struct {
	weights score.Weights
	tables  relatives.Tables
	matcher *namematch.Matcher
	logger  *slog.Logger

	scorer     *score.Scorer
	extractor  *relatives.Extractor
	correlator *address.Correlator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithWeights replaces the default scoring weights, typically from a
// weights file. Callers should Validate the weights first.
func WithWeights(w score.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithMatcher replaces the default name matcher, for tuned windows.
func WithMatcher(m *namematch.Matcher) Option {
	return func(e *Engine) { e.matcher = m }
}

// WithTables replaces the default extractor word tables.
func WithTables(t relatives.Tables) Option {
	return func(e *Engine) { e.tables = t }
}

// New creates an Engine with default weights, windows, and word tables.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights: score.Defaults(),
		tables:  relatives.DefaultTables(),
		matcher: namematch.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scorer = score.New(e.weights, e.logger)
	e.extractor = relatives.New(e.tables, e.logger)
	e.correlator = address.New(e.logger)
	return e
}

// Run evaluates all findings against the subject and produces the report.
// Malformed findings are counted as rejected and skipped; they never
// abort the batch. An empty finding set is a valid run with empty output.
func (e *Engine) Run(subject *evidence.Subject, findings []evidence.Finding) (*evidence.Report, error) {
	if subject == nil {
		return nil, evidence.ErrNoSubjectName
	}
	if err := subject.Validate(); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	unique := dedup.Findings(findings)

	rejected := 0
	valid := make([]evidence.Finding, 0, len(unique))
	for i := range unique {
		if err := unique[i].Validate(); err != nil {
			rejected++
			e.logger.Warn("finding rejected", "locator", unique[i].Locator, "error", err)
			continue
		}
		valid = append(valid, unique[i])
	}

	tiers := make([]evidence.Tier, len(valid))
	for i := range valid {
		tiers[i] = e.matcher.Match(valid[i].Body(), subject.Name, valid[i].Category.LowTrust())
	}

	links := e.extractLinks(subject, valid)
	matches, coLinks := e.correlateAddresses(subject, valid, tiers, links)
	links = dedup.MergeRelatives(append(links, coLinks...))
	matches = dedup.MergeAddresses(matches)
	annotateResidence(subject, links, matches)

	report := &evidence.Report{
		Subject:   *subject,
		Relatives: links,
		Addresses: matches,
	}

	inferred := inferredNames(subject, links)
	for i := range valid {
		f := valid[i]
		factors := score.Detect(subject, &f, inferred)
		confidence, class, reasons := e.scorer.Score(tiers[i], f.Query, factors)
		result := evidence.MatchResult{
			Finding:    f,
			Tier:       tiers[i],
			Factors:    factors,
			Confidence: confidence,
			Class:      class,
			Reasons:    reasons,
		}
		switch class {
		case evidence.ClassConfirmed:
			report.Confirmed = append(report.Confirmed, result)
		case evidence.ClassPossible:
			report.Possible = append(report.Possible, result)
		default:
			rejected++
		}
	}
	report.Rejected = rejected

	sortReport(report)
	e.logger.Info("correlation complete",
		"subject", subject.Name,
		"findings", len(findings),
		"confirmed", len(report.Confirmed),
		"possible", len(report.Possible),
		"relatives", len(report.Relatives),
		"addresses", len(report.Addresses),
		"rejected", rejected)
	return report, nil
}

// extractLinks runs the relative extractor over every valid finding. The
// extractor's surname pattern is its own gate, so extraction is not
// conditioned on the finding's name-match tier: an obituary can name the
// subject's sister without mentioning the subject close by.
func (e *Engine) extractLinks(subject *evidence.Subject, valid []evidence.Finding) []evidence.RelativeLink {
	var links []evidence.RelativeLink
	for i := range valid {
		links = append(links, e.extractor.Extract(&valid[i], subject)...)
	}
	return links
}

// correlateAddresses runs the ownership correlator over property findings,
// matching owners against the provided relatives plus everything the
// extractor found. A match enters the report when it ties to the subject
// in some way: a matched owner, the subject's own address, or a name
// match in the finding text. Untethered properties are dropped.
func (e *Engine) correlateAddresses(subject *evidence.Subject, valid []evidence.Finding, tiers []evidence.Tier, links []evidence.RelativeLink) ([]evidence.AddressMatch, []evidence.RelativeLink) {
	names := make([]string, 0, len(subject.Relatives)+len(links))
	for _, r := range subject.Relatives {
		names = append(names, r.Name)
	}
	for _, l := range links {
		names = append(names, l.Name)
	}

	var matches []evidence.AddressMatch
	var coLinks []evidence.RelativeLink
	for i := range valid {
		if valid[i].Category != evidence.CategoryProperty {
			continue
		}
		match, proposed := e.correlator.Correlate(&valid[i], subject, names)
		if match == nil {
			continue
		}
		anchored := subject.Address != "" && normalize.SameAddress(match.Address, subject.Address)
		if !match.OwnerIsSubject && !match.OwnerInRelatives && !anchored && !tiers[i].Matched() {
			e.logger.Debug("address match dropped, no tie to subject", "address", match.Address)
			continue
		}
		matches = append(matches, *match)
		coLinks = append(coLinks, proposed...)
	}
	return matches, coLinks
}

// annotateResidence fills co-residence counters on merged links from the
// merged address matches: how many addresses the subject and the relative
// share, and the widest residency-year overlap among them.
func annotateResidence(subject *evidence.Subject, links []evidence.RelativeLink, matches []evidence.AddressMatch) {
	var subjectRes []relatives.Residence
	if subject.Address != "" {
		subjectRes = append(subjectRes, relatives.Residence{Address: subject.Address})
	}
	for i := range matches {
		if matches[i].OwnerIsSubject {
			subjectRes = append(subjectRes, relatives.Residence{
				Address: matches[i].Address,
				Years:   matches[i].Residency,
			})
		}
	}
	if len(subjectRes) == 0 {
		return
	}

	for i := range links {
		var relRes []relatives.Residence
		for j := range matches {
			for _, owner := range matches[j].MatchedRelatives {
				if !normalize.SamePersonLoose(owner, links[i].Name) {
					continue
				}
				relRes = append(relRes, relatives.Residence{
					Address: matches[j].Address,
					Years:   matches[j].Residency,
				})
				break
			}
		}
		shared, overlap := relatives.CoResidence(subjectRes, relRes)
		if shared > links[i].SharedAddresses {
			links[i].SharedAddresses = shared
		}
		if overlap > links[i].OverlapYears {
			links[i].OverlapYears = overlap
		}
	}
}

// inferredNames returns merged link names that were not provided by the
// caller, for the inferred-relative corroboration factor.
func inferredNames(subject *evidence.Subject, links []evidence.RelativeLink) []string {
	var names []string
	for _, l := range links {
		provided := false
		for _, r := range subject.Relatives {
			if normalize.SamePerson(l.Name, r.Name) {
				provided = true
				break
			}
		}
		if !provided {
			names = append(names, l.Name)
		}
	}
	return names
}

// sortReport orders every output list by confidence, strongest first,
// with stable key tiebreaks, and sorts merged string lists, so the same
// finding set gives the same report whatever order findings arrived in.
func sortReport(report *evidence.Report) {
	for i := range report.Relatives {
		sort.Strings(report.Relatives[i].Sources)
	}
	for i := range report.Addresses {
		sort.Strings(report.Addresses[i].Sources)
		sort.Strings(report.Addresses[i].MatchedRelatives)
		sort.Strings(report.Addresses[i].Owners)
	}

	byConfidence := func(results []evidence.MatchResult) {
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Confidence != results[j].Confidence {
				return results[i].Confidence > results[j].Confidence
			}
			return results[i].Finding.Locator < results[j].Finding.Locator
		})
	}
	byConfidence(report.Confirmed)
	byConfidence(report.Possible)

	sort.SliceStable(report.Relatives, func(i, j int) bool {
		if report.Relatives[i].Confidence != report.Relatives[j].Confidence {
			return report.Relatives[i].Confidence > report.Relatives[j].Confidence
		}
		return report.Relatives[i].Key < report.Relatives[j].Key
	})
	sort.SliceStable(report.Addresses, func(i, j int) bool {
		if report.Addresses[i].Confidence != report.Addresses[j].Confidence {
			return report.Addresses[i].Confidence > report.Addresses[j].Confidence
		}
		return report.Addresses[i].Key < report.Addresses[j].Key
	})
}
