// Package namematch classifies how strongly a candidate text blob supports
// "this text mentions the subject". It produces a tier, not a score: the
// corroboration scorer decides what a tier is worth. Matching is tiered
// because name co-occurrence alone is weak evidence. Legal filings list
// dozens of unrelated parties, and ordinary prose may mention a "John" and
// a "Smith" that are different people.
package namematch

import (
	"strings"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
)

// Default matching windows, in characters measured on punctuation-stripped,
// whitespace-collapsed text. Adjacency tolerates middle initials and comma
// reversal ("Smith, John A."); proximity tolerates prose between the names.
const (
	DefaultAdjacencyWindow = 15
	DefaultProximityWindow = 30
)

// Matcher holds the tunable matching windows. The zero value is not usable;
// construct with New.
type Matcher struct {
	AdjacencyWindow int
	ProximityWindow int
}

// New returns a Matcher with the default windows.
func New() *Matcher {
	return &Matcher{
		AdjacencyWindow: DefaultAdjacencyWindow,
		ProximityWindow: DefaultProximityWindow,
	}
}

// Match classifies how text supports a mention of the subject's full name.
// lowTrust marks sources whose records interleave many unrelated names
// (court filings); for those only contiguous or adjacent matches count,
// and the proximity rule is skipped entirely.
func (m *Matcher) Match(text, subjectName string, lowTrust bool) evidence.Tier {
	name := normalize.Name(subjectName)
	if name == "" || strings.TrimSpace(text) == "" {
		return evidence.TierNone
	}
	canon := normalize.Name(text)

	if phraseMatch(canon, name) {
		return evidence.TierExact
	}

	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		// A single-token subject name can only match as a phrase.
		return evidence.TierNone
	}
	first, last := tokens[0], tokens[len(tokens)-1]

	if m.adjacentTokens(canon, first, last) {
		return evidence.TierAdjacent
	}

	if lowTrust {
		return evidence.TierNone
	}

	if m.proximateTokens(canon, first, last) {
		return evidence.TierProximity
	}
	return evidence.TierNone
}

// phraseMatch reports whether the full name appears contiguously in the
// canonical text, on token boundaries, so "Prince" never matches inside
// "princely".
func phraseMatch(canonText, canonName string) bool {
	return strings.Contains(" "+canonText+" ", " "+canonName+" ")
}

// adjacentTokens reports whether the first and last name tokens appear
// within the adjacency window of each other, in either order. This accepts
// "John A. Smith" and "Smith, John" as full-strength mentions.
func (m *Matcher) adjacentTokens(canonText, first, last string) bool {
	gap, ok := nearestPairGap(canonText, first, last)
	return ok && gap <= m.AdjacencyWindow
}

// proximateTokens reports whether any independent occurrences of the first
// and last name tokens lie within the proximity window. This is the loose
// rule for ordinary prose and must never run for low-trust sources.
func (m *Matcher) proximateTokens(canonText, first, last string) bool {
	gap, ok := nearestPairGap(canonText, first, last)
	return ok && gap <= m.ProximityWindow
}

// occurrence is one standalone appearance of a word in canonical text.
type occurrence struct {
	start int
	end   int
}

// nearestPairGap finds all standalone occurrences of the two tokens in the
// canonical text and returns the smallest character gap between any pair,
// in either order. ok is false when either token never occurs.
func nearestPairGap(canonText, tokenA, tokenB string) (gap int, ok bool) {
	occA := findOccurrences(canonText, tokenA)
	occB := findOccurrences(canonText, tokenB)
	if len(occA) == 0 || len(occB) == 0 {
		return 0, false
	}

	best := -1
	for _, a := range occA {
		for _, b := range occB {
			if a.start == b.start {
				continue // same word cannot serve as both tokens
			}
			g := pairGap(a, b)
			if best < 0 || g < best {
				best = g
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// findOccurrences returns the positions of word as a standalone token in
// canonical text. Substring hits inside longer words ("john" in "johnson")
// do not count.
func findOccurrences(canonText, word string) []occurrence {
	var occs []occurrence
	start := 0
	for {
		i := strings.Index(canonText[start:], word)
		if i < 0 {
			return occs
		}
		s := start + i
		e := s + len(word)
		leftOK := s == 0 || canonText[s-1] == ' '
		rightOK := e == len(canonText) || canonText[e] == ' '
		if leftOK && rightOK {
			occs = append(occs, occurrence{start: s, end: e})
		}
		start = s + 1
	}
}

// pairGap returns the character distance between two non-overlapping
// occurrences: the gap between where the earlier one ends and the later
// one starts.
func pairGap(a, b occurrence) int {
	if a.end <= b.start {
		return b.start - a.end
	}
	if b.end <= a.start {
		return a.start - b.end
	}
	return 0
}
