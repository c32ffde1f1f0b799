// Package relatives mines finding text for names of other individuals
// connected to the subject and infers the relationship type. Extraction is
// deliberately conservative: the only free-text pattern is a capitalized
// first-name token directly before the subject's exact surname. Generic
// phrases ("survived by", "married to") are never extraction rules; they
// produce too much noise and stay upstream as query hints only.
package relatives

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
)

// Link confidence levels. A name harvested from prose starts lower than a
// relative asserted by a people-search record; a different-surname person
// sharing the subject's address carries the strongest inference.
const (
	ConfidenceExtracted  = 0.50
	ConfidenceListed     = 0.60
	ConfidenceCoResident = 0.90
)

// Extractor finds relative candidates in findings.
type Extractor struct {
	tables Tables
	logger *slog.Logger
}

// New creates an Extractor with the given word tables. A nil logger falls
// back to slog.Default.
func New(tables Tables, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{tables: tables, logger: logger}
}

// Extract scans one finding for relative candidates and returns unmerged
// links. Free text yields only the "<Capitalized first name> <subject
// surname>" pattern; structured person lists are taken as-is from
// people-search records, where the source itself asserts the connection.
// The subject's own name is never a candidate.
func (e *Extractor) Extract(f *evidence.Finding, subject *evidence.Subject) []evidence.RelativeLink {
	subjFirst, surname := subject.NameTokens()
	if surname == "" {
		return nil
	}

	seen := make(map[string]bool)
	var links []evidence.RelativeLink

	add := func(name string, confidence float64, listed bool) {
		key := normalize.Name(name)
		if key == "" || seen[key] {
			return
		}
		if normalize.SamePerson(name, subject.Name) {
			return
		}
		seen[key] = true
		links = append(links, evidence.RelativeLink{
			Name:       name,
			Key:        key,
			Relation:   e.classify(name, surname, listed, subject.Relatives),
			Confidence: confidence,
			Sources:    []string{f.Locator},
		})
		e.logger.Debug("relative candidate", "name", name, "listed", listed, "locator", f.Locator)
	}

	words := splitWords(f.Body())
	for i := 1; i < len(words); i++ {
		first, last := words[i-1], words[i]
		if !strings.EqualFold(last, surname) {
			continue
		}
		if strings.EqualFold(first, subjFirst) {
			continue
		}
		if !e.validFirstName(first) {
			continue
		}
		add(first+" "+last, ConfidenceExtracted, false)
	}

	if f.Category == evidence.CategoryPeopleSearch {
		for _, p := range f.Persons {
			if len(strings.Fields(normalize.Name(p))) < 2 {
				continue
			}
			add(p, ConfidenceListed, true)
		}
	}

	return links
}

// validFirstName applies the candidate filter: not a stop word, starts
// with a capital (the pattern requires it), and is either a known common
// first name or a long-enough, properly capitalized alphabetic token.
func (e *Extractor) validFirstName(token string) bool {
	lower := strings.ToLower(token)
	if e.tables.StopWords.Contains(lower) {
		return false
	}
	runes := []rune(token)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	if e.tables.CommonFirstNames.Contains(lower) {
		return true
	}
	if len(runes) < e.tables.MinTokenLen {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// classify applies the relationship rules in order: an explicit label on a
// provided relative wins, a shared surname means blood, an unlabeled
// provided associate is presumed a partner, a source-listed person is an
// associate, and a bare prose extraction stays unknown until address
// evidence says otherwise.
func (e *Extractor) classify(name, surname string, listed bool, provided []evidence.KnownRelative) evidence.Relation {
	for _, known := range provided {
		if !normalize.SamePerson(name, known.Name) {
			continue
		}
		if rel, ok := relationFromLabel(known.Relation); ok {
			return rel
		}
		if SameSurname(name, surname) {
			return evidence.RelationBlood
		}
		return evidence.RelationSpouse
	}
	if SameSurname(name, surname) {
		return evidence.RelationBlood
	}
	if listed {
		return evidence.RelationAssociate
	}
	return evidence.RelationUnknown
}

// relationFromLabel maps a user-supplied relationship label onto a
// relation type. Unrecognized labels fall through to the rule chain.
func relationFromLabel(label string) (evidence.Relation, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "":
		return "", false
	case "spouse", "partner", "husband", "wife":
		return evidence.RelationSpouse, true
	case "mother", "father", "parent", "sister", "brother", "sibling",
		"son", "daughter", "child", "cousin", "aunt", "uncle",
		"grandmother", "grandfather", "nephew", "niece":
		return evidence.RelationBlood, true
	default:
		return evidence.RelationAssociate, true
	}
}

// SameSurname reports whether a person name ends in the given surname,
// comparing normalized last tokens.
func SameSurname(name, surname string) bool {
	tokens := strings.Fields(normalize.Name(name))
	if len(tokens) == 0 {
		return false
	}
	return tokens[len(tokens)-1] == strings.ToLower(strings.TrimSpace(surname))
}

// Residence is one address attributed to a person, with the residency
// span when a source provided one.
type Residence struct {
	Address string
	Years   *evidence.YearRange
}

// CoResidence intersects the addresses attributed to the subject with
// those attributed to a relative: the count of shared addresses and the
// widest overlap in residency years. Each relative address counts once
// however many subject addresses it matches.
func CoResidence(subjectRes, relativeRes []Residence) (shared, overlapYears int) {
	for _, rr := range relativeRes {
		for _, sr := range subjectRes {
			if !normalize.SameAddress(rr.Address, sr.Address) {
				continue
			}
			shared++
			if rr.Years != nil && sr.Years != nil {
				if ov := rr.Years.Overlap(*sr.Years); ov > overlapYears {
					overlapYears = ov
				}
			}
			break
		}
	}
	return shared, overlapYears
}

// splitWords tokenizes text into words, keeping letters plus inner
// apostrophes and hyphens so "D'Angelo" and "Mary-Jane" survive intact.
func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})
	out := fields[:0]
	for _, w := range fields {
		w = strings.Trim(w, "'-")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
