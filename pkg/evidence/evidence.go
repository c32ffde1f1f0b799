// Package evidence defines the common types for subject investigation:
// the search target, raw findings collected from sources, and the derived
// match, relationship, and address records produced by correlation.
package evidence

import (
	"errors"
	"strings"
)

// Common errors returned by validation and the correlation engine.
var (
	ErrNoSubjectName  = errors.New("subject name required")
	ErrMissingText    = errors.New("finding has no text")
	ErrMissingLocator = errors.New("finding has no locator")
)

// Category identifies the kind of source a Finding came from.
type Category string

// Source category constants. The category selects name-matching strictness
// and tells the presentation layer which panel a finding belongs to.
const (
	CategorySearch       Category = "search"
	CategoryPeopleSearch Category = "people_search"
	CategoryCourt        Category = "court"
	CategoryProperty     Category = "property"
	CategoryNews         Category = "news"
	CategorySocial       Category = "social"
)

// LowTrust reports whether this category lists many unrelated names in one
// record (court dockets and legal filings). Low-trust sources only accept
// adjacent name matches; loose proximity matching is disabled for them.
func (c Category) LowTrust() bool {
	return c == CategoryCourt
}

// QueryKind records which query phrasing produced a Finding. It drives the
// base score for keyword-only results: a hit from a query that contained the
// subject's name is worth more than a hit from a generic keyword probe.
type QueryKind string

// Query provenance constants, strongest first.
const (
	QueryWithName    QueryKind = "name_query"
	QueryExactPhrase QueryKind = "exact_keyword"
	QueryGeneric     QueryKind = "generic_keyword"
)

// KnownRelative is a relative or associate supplied by the caller before the
// investigation starts.
type KnownRelative struct {
	Name     string `json:"name"`
	Relation string `json:"relation,omitempty"` // optional label: "sister", "spouse", ...
}

// Subject is the search target. It is immutable for the duration of one
// investigation; re-runs with a modified subject are new investigations.
type Subject struct {
	Name      string          `json:"name"`                // Full name, required
	Address   string          `json:",omitempty"`          // Street address, e.g. "123 Oak St, Springfield, IL"
	City      string          `json:",omitempty"`          // City, used for the location factor
	State     string          `json:",omitempty"`          // State or region token
	Email     string          `json:",omitempty"`          // Known email address
	Phone     string          `json:",omitempty"`          // Known phone number, any formatting
	Username  string          `json:",omitempty"`          // Known online handle
	Keywords  []string        `json:",omitempty"`          // Free-text terms: employer, school, hobby
	Relatives []KnownRelative `json:",omitempty"`          // Already-known relatives and associates
}

// Validate reports whether the subject carries enough identity to match on.
func (s *Subject) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNoSubjectName
	}
	return nil
}

// NameTokens returns the first and last whitespace-separated tokens of the
// subject's full name. For a single-token name both values are that token.
func (s *Subject) NameTokens() (first, last string) {
	tokens := strings.Fields(s.Name)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], tokens[len(tokens)-1]
}

// YearRange is an inclusive span of residency years attributed to a person
// at an address.
type YearRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Valid reports whether the range carries usable data.
func (r YearRange) Valid() bool {
	return r.First > 0 && r.Last >= r.First
}

// Overlap returns the number of years the two ranges share, or zero when
// either range is unset.
func (r YearRange) Overlap(o YearRange) int {
	if !r.Valid() || !o.Valid() {
		return 0
	}
	first := r.First
	if o.First > first {
		first = o.First
	}
	last := r.Last
	if o.Last < last {
		last = o.Last
	}
	if last < first {
		return 0
	}
	return last - first + 1
}

// Finding is one unit of evidence from a source. Findings are produced
// independently and never mutated after creation; every downstream step
// builds new derived records.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Finding struct {
	// Provenance
	Source   string    `json:"source"`    // Collector that produced it: "websearch", "propertyrecords", ...
	Category Category  `json:"category"`  // Source category tag
	Query    QueryKind `json:",omitempty"` // Which query phrasing produced it

	// Evidence body
	Title   string `json:",omitempty"` // Result title or record heading
	Text    string `json:",omitempty"` // Snippet or structured record flattened to text
	Locator string `json:"locator"`    // URL, or a synthetic identifier for non-web records

	// Structured fields already extracted by the source
	Phones    []string   `json:",omitempty"` // Phone strings as listed
	Emails    []string   `json:",omitempty"` // Email strings as listed
	Address   string     `json:",omitempty"` // Street address as listed
	Persons   []string   `json:",omitempty"` // Named persons: owners, residents, listed relatives
	Residency *YearRange `json:",omitempty"` // Years of residency when the source provides them
}

// Body returns the matchable text of the finding: title and snippet joined.
func (f *Finding) Body() string {
	return strings.TrimSpace(strings.TrimSpace(f.Title) + "\n" + strings.TrimSpace(f.Text))
}

// Validate reports whether the finding is well formed enough to evaluate.
// Malformed findings are rejected individually; they never abort a batch.
func (f *Finding) Validate() error {
	if f.Body() == "" {
		return ErrMissingText
	}
	if strings.TrimSpace(f.Locator) == "" {
		return ErrMissingLocator
	}
	return nil
}

// Tier classifies how strongly a text blob supports "this mentions the
// subject's name".
type Tier string

// Name-match tiers, strongest first. Adjacent is scored equal to exact:
// "Smith, John A." is as strong a mention as "John Smith".
const (
	TierExact     Tier = "exact"
	TierAdjacent  Tier = "adjacent"
	TierProximity Tier = "proximity"
	TierNone      Tier = "none"
)

// Matched reports whether the tier represents any name match at all.
func (t Tier) Matched() bool {
	return t != TierNone && t != ""
}

// FactorTag names one corroborating signal type.
type FactorTag string

// Corroborating factor tags. Each is detected independently of name matching
// and rendered as a badge by the presentation layer.
const (
	FactorLocation      FactorTag = "location"
	FactorPhone         FactorTag = "phone"
	FactorEmail         FactorTag = "email"
	FactorUsername      FactorTag = "username"
	FactorKeyword       FactorTag = "keyword"
	FactorRelative      FactorTag = "relative"       // an inferred relative's name appears
	FactorKnownRelative FactorTag = "known_relative" // a caller-provided relative's name appears
	FactorAddress       FactorTag = "address"
)

// Factor is one detected corroborating signal with the value that matched.
type Factor struct {
	Tag   FactorTag `json:"tag"`
	Value string    `json:",omitempty"` // Matched value for display: "5551234567", "springfield"
	Count int       `json:",omitempty"` // Distinct matches, for count-scaled factors (keywords)
}

// Class is the classification of a scored finding.
type Class string

// Classification constants. Confirmed requires a 0.60 confidence, which a
// name match alone can never reach.
const (
	ClassConfirmed Class = "confirmed"
	ClassPossible  Class = "possible"
	ClassRejected  Class = "rejected"
)

// MatchResult is one Finding's evaluation against the subject.
type MatchResult struct {
	Finding    Finding  `json:"finding"`
	Tier       Tier     `json:"tier"`
	Factors    []Factor `json:",omitempty"` // Corroborating factors that fired
	Confidence float64  `json:"confidence"` // 0.0 to 0.98, never certain
	Class      Class    `json:"class"`
	Reasons    []string `json:",omitempty"` // Human-readable scoring trace: "name:exact", "factor:phone"
}

// Relation is an inferred relationship type between the subject and another
// named individual.
type Relation string

// Relationship constants.
const (
	RelationBlood     Relation = "blood_relative"
	RelationSpouse    Relation = "spouse_or_partner"
	RelationAssociate Relation = "associate"
	RelationUnknown   Relation = "unknown"
)

// RelativeLink is an inferred relationship between the subject and another
// person. Links are merged by normalized-name key as more findings arrive
// and are never deleted within a run.
type RelativeLink struct {
	Name            string   `json:"name"`
	Key             string   `json:"key"` // Normalized-name merge key
	Relation        Relation `json:"relation"`
	Confidence      float64  `json:"confidence"`
	Sources         []string `json:",omitempty"` // Locators of supporting findings
	SharedAddresses int      `json:",omitempty"` // Addresses attributed to both subject and relative
	OverlapYears    int      `json:",omitempty"` // Overlapping residency years across shared addresses
}

// AddressMatch correlates one property or residence finding to known persons.
//
//nolint:govet // fieldalignment: intentional layout for readability
type AddressMatch struct {
	Address string `json:"address"` // As listed by the source
	Key     string `json:"key"`     // Normalized-address merge key

	Owners           []string `json:",omitempty"` // Owner and resident names as listed
	MatchedSubject   string   `json:",omitempty"` // Owner string that matched the subject
	MatchedRelatives []string `json:",omitempty"` // Owner strings that matched known relatives

	Confidence float64  `json:"confidence"`
	Sources    []string `json:",omitempty"` // Locators of supporting findings

	OwnerIsSubject       bool `json:",omitempty"`
	OwnerInRelatives     bool `json:",omitempty"`
	MultiPersonHousehold bool `json:",omitempty"`

	Residency *YearRange `json:",omitempty"` // Residency span when the source provides one
}

// Report is the engine's output for one investigation run. It is recomputed
// from scratch on every run; within a run it is append-only.
type Report struct {
	Subject   Subject        `json:"subject"`
	Confirmed []MatchResult  `json:"confirmed"`
	Possible  []MatchResult  `json:"possible"`
	Relatives []RelativeLink `json:",omitempty"`
	Addresses []AddressMatch `json:",omitempty"`
	Rejected  int            `json:",omitempty"` // Malformed or unmatchable findings dropped
}
