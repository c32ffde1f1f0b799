// Package dedup collapses repeat evidence. Findings that share a locator
// are the identical artifact and later copies are discarded; derived
// entities (relative links, address matches) that share a normalized key
// are merged, folding their evidence together instead of discarding it.
package dedup

import (
	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
)

// Findings removes findings whose normalized locator was already seen,
// keeping the first occurrence. The same page reached with different query
// strings or a trailing slash collapses to one finding. Findings without
// a usable locator pass through; rejecting them is the caller's call.
func Findings(findings []evidence.Finding) []evidence.Finding {
	seen := make(map[string]bool, len(findings))
	var out []evidence.Finding
	for _, f := range findings {
		key := normalize.URLKey(f.Locator)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, f)
	}
	return out
}

// relationRank orders relationship types by specificity for merge
// conflicts. Blood relationships outrank spouse inference, which outranks
// the catch-all types, mirroring the classifier's own precedence.
func relationRank(r evidence.Relation) int {
	switch r {
	case evidence.RelationBlood:
		return 4
	case evidence.RelationSpouse:
		return 3
	case evidence.RelationAssociate:
		return 2
	case evidence.RelationUnknown:
		return 1
	default:
		return 0
	}
}

// MergeRelatives folds relative links that refer to the same person, keyed
// by normalized name. On collision the source lists are unioned, confidence
// rises to the larger value, and co-residence counters take the larger
// value rather than summing, so repeat evidence is never double counted.
func MergeRelatives(links []evidence.RelativeLink) []evidence.RelativeLink {
	byKey := make(map[string]int, len(links))
	var out []evidence.RelativeLink

	for _, link := range links {
		key := link.Key
		if key == "" {
			key = normalize.Name(link.Name)
		}
		if key == "" {
			continue
		}

		i, ok := byKey[key]
		if !ok {
			link.Key = key
			link.Sources = dedupeStrings(link.Sources)
			byKey[key] = len(out)
			out = append(out, link)
			continue
		}

		merged := &out[i]
		merged.Sources = unionStrings(merged.Sources, link.Sources)
		if link.Confidence > merged.Confidence {
			merged.Confidence = link.Confidence
		}
		if relationRank(link.Relation) > relationRank(merged.Relation) {
			merged.Relation = link.Relation
		}
		if link.SharedAddresses > merged.SharedAddresses {
			merged.SharedAddresses = link.SharedAddresses
		}
		if link.OverlapYears > merged.OverlapYears {
			merged.OverlapYears = link.OverlapYears
		}
	}
	return out
}

// MergeAddresses folds address matches that refer to the same location,
// keyed by normalized street line. Owner lists and sources are unioned,
// confidence and flags keep the strongest evidence seen.
func MergeAddresses(matches []evidence.AddressMatch) []evidence.AddressMatch {
	byKey := make(map[string]int, len(matches))
	var out []evidence.AddressMatch

	for _, m := range matches {
		key := m.Key
		if key == "" {
			key = normalize.AddressKey(m.Address)
		}
		if key == "" {
			continue
		}

		i, ok := byKey[key]
		if !ok {
			m.Key = key
			m.Owners = dedupeStrings(m.Owners)
			m.Sources = dedupeStrings(m.Sources)
			m.MatchedRelatives = dedupeStrings(m.MatchedRelatives)
			byKey[key] = len(out)
			out = append(out, m)
			continue
		}

		merged := &out[i]
		merged.Owners = unionStrings(merged.Owners, m.Owners)
		merged.Sources = unionStrings(merged.Sources, m.Sources)
		merged.MatchedRelatives = unionStrings(merged.MatchedRelatives, m.MatchedRelatives)
		if m.Confidence > merged.Confidence {
			merged.Confidence = m.Confidence
		}
		if merged.MatchedSubject == "" {
			merged.MatchedSubject = m.MatchedSubject
		}
		merged.OwnerIsSubject = merged.OwnerIsSubject || m.OwnerIsSubject
		merged.OwnerInRelatives = merged.OwnerInRelatives || m.OwnerInRelatives
		merged.MultiPersonHousehold = merged.MultiPersonHousehold || m.MultiPersonHousehold
		if merged.Residency == nil {
			merged.Residency = m.Residency
		}
	}
	return out
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// unionStrings appends values from b not already present in a.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		a = append(a, v)
	}
	return a
}
