// Package query builds the search phrasings an investigation issues to its
// sources. Each query carries its provenance kind, which later drives the
// base score of keyword-only findings: a hit produced by a query that
// contained the subject's name is worth more than a hit from a generic
// keyword probe.
package query

import (
	"strings"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

// Query is one search phrasing with its provenance kind.
type Query struct {
	Text string             `json:"text"`
	Kind evidence.QueryKind `json:"kind"`
}

// Build assembles the query set for a subject: the quoted name combined
// with every other identity field, quoted multiword keyword phrases, and
// loose keyword and handle probes. Duplicate phrasings are dropped,
// order is deterministic.
func Build(subject *evidence.Subject) []Query {
	if subject == nil {
		return nil
	}
	name := strings.TrimSpace(subject.Name)
	if name == "" {
		return nil
	}

	b := builder{seen: make(map[string]bool)}
	quoted := `"` + name + `"`

	b.add(quoted, evidence.QueryWithName)
	if subject.City != "" {
		b.add(quoted+" "+strings.TrimSpace(subject.City), evidence.QueryWithName)
	}
	if subject.State != "" {
		b.add(quoted+" "+strings.TrimSpace(subject.State), evidence.QueryWithName)
	}
	if subject.Address != "" {
		b.add(quoted+` "`+streetLine(subject.Address)+`"`, evidence.QueryWithName)
	}
	if subject.Phone != "" {
		b.add(quoted+" "+strings.TrimSpace(subject.Phone), evidence.QueryWithName)
	}
	if subject.Email != "" {
		b.add(quoted+" "+strings.TrimSpace(subject.Email), evidence.QueryWithName)
	}
	if subject.Username != "" {
		b.add(quoted+" "+strings.TrimSpace(subject.Username), evidence.QueryWithName)
	}
	for _, kw := range subject.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		b.add(quoted+" "+kw, evidence.QueryWithName)
	}
	for _, rel := range subject.Relatives {
		rn := strings.TrimSpace(rel.Name)
		if rn == "" {
			continue
		}
		b.add(quoted+` "`+rn+`"`, evidence.QueryWithName)
	}

	// Quoted multiword keywords stand on their own: "Acme Corp" is a
	// specific phrase even without the name attached.
	for _, kw := range subject.Keywords {
		kw = strings.TrimSpace(kw)
		if strings.Contains(kw, " ") {
			b.add(`"`+kw+`"`, evidence.QueryExactPhrase)
		}
	}

	// Loose probes: handles and single-word keywords without the name.
	if subject.Username != "" {
		b.add(strings.TrimSpace(subject.Username), evidence.QueryGeneric)
	}
	if subject.Email != "" {
		b.add(strings.TrimSpace(subject.Email), evidence.QueryGeneric)
	}
	for _, kw := range subject.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" && !strings.Contains(kw, " ") {
			b.add(kw, evidence.QueryGeneric)
		}
	}

	return b.queries
}

type builder struct {
	seen    map[string]bool
	queries []Query
}

func (b *builder) add(text string, kind evidence.QueryKind) {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if key == "" || b.seen[key] {
		return
	}
	b.seen[key] = true
	b.queries = append(b.queries, Query{Text: text, Kind: kind})
}

// streetLine returns the street portion of an address, the part before
// the first comma. Full addresses over-constrain search engines.
func streetLine(address string) string {
	if i := strings.Index(address, ","); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSpace(address)
}
