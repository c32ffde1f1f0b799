// Package address correlates property and residence findings with the
// subject and the subject's known or inferred relatives. Ownership records
// carry structured owner lists, so matching here is against names the
// source asserts rather than names mined from prose, and a shared address
// is treated as the strongest relationship signal the engine has.
package address

import (
	"log/slog"
	"strings"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
	"github.com/codeGROOVE-dev/dragnet/pkg/relatives"
)

// Ownership confidence weights. The base applies as soon as a record
// lists any owner; identity bonuses stack on top of it. The first matched
// person contributes the subject or relative bonus, each further matched
// household member adds the household bonus up to its cap.
const (
	BaseOwnership  = 0.50
	SubjectBonus   = 0.30
	RelativeBonus  = 0.15
	HouseholdBonus = 0.05
	HouseholdCap   = 0.15
	Cap            = 0.98
)

// Correlator matches property findings to people.
type Correlator struct {
	logger *slog.Logger
}

// New creates a Correlator. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{logger: logger}
}

// Correlate evaluates one finding's address against the subject and the
// given relative names. It returns the ownership match, or nil when the
// finding carries no address or no owner names, plus relationship links
// inferred from co-residency: a different-surname owner at a
// subject-anchored address is proposed as a partner, a same-surname owner
// as a blood relative.
func (c *Correlator) Correlate(f *evidence.Finding, subject *evidence.Subject, relativeNames []string) (*evidence.AddressMatch, []evidence.RelativeLink) {
	owners := cleanOwners(f.Persons)
	if f.Address == "" || len(owners) == 0 {
		return nil, nil
	}

	match := &evidence.AddressMatch{
		Address:              f.Address,
		Key:                  normalize.AddressKey(f.Address),
		Owners:               owners,
		Confidence:           BaseOwnership,
		Sources:              []string{f.Locator},
		MultiPersonHousehold: len(owners) > 1,
		Residency:            f.Residency,
	}

	for _, owner := range owners {
		switch {
		case normalize.SamePersonLoose(owner, subject.Name):
			match.OwnerIsSubject = true
			if match.MatchedSubject == "" {
				match.MatchedSubject = owner
			}
		case matchesAny(owner, relativeNames):
			match.OwnerInRelatives = true
			match.MatchedRelatives = append(match.MatchedRelatives, owner)
		}
	}

	matched := len(match.MatchedRelatives)
	extras := matched - 1
	switch {
	case match.OwnerIsSubject:
		match.Confidence += SubjectBonus
		extras = matched
	case matched > 0:
		match.Confidence += RelativeBonus
	}
	if extras > 0 {
		bonus := float64(extras) * HouseholdBonus
		if bonus > HouseholdCap {
			bonus = HouseholdCap
		}
		match.Confidence += bonus
	}
	if match.Confidence > Cap {
		match.Confidence = Cap
	}

	links := c.coResidentLinks(f, subject, match, owners)
	c.logger.Debug("address correlated",
		"address", f.Address, "owners", len(owners),
		"confidence", match.Confidence, "links", len(links))
	return match, links
}

// coResidentLinks proposes relationships for owners who share a
// subject-anchored address. An address counts as subject-anchored when it
// matches the subject's own address or when the subject appears among the
// owners.
func (c *Correlator) coResidentLinks(f *evidence.Finding, subject *evidence.Subject, match *evidence.AddressMatch, owners []string) []evidence.RelativeLink {
	_, surname := subject.NameTokens()
	if surname == "" {
		return nil
	}
	anchored := match.OwnerIsSubject ||
		(subject.Address != "" && normalize.SameAddress(f.Address, subject.Address))
	if !anchored {
		return nil
	}

	var links []evidence.RelativeLink
	for _, owner := range owners {
		if normalize.SamePersonLoose(owner, subject.Name) {
			continue
		}
		if len(strings.Fields(normalize.Name(owner))) < 2 {
			continue
		}
		relation := evidence.RelationSpouse
		confidence := relatives.ConfidenceCoResident
		if relatives.SameSurname(owner, surname) {
			relation = evidence.RelationBlood
			confidence = relatives.ConfidenceListed
		}
		links = append(links, evidence.RelativeLink{
			Name:            owner,
			Key:             normalize.Name(owner),
			Relation:        relation,
			Confidence:      confidence,
			Sources:         []string{f.Locator},
			SharedAddresses: 1,
		})
	}
	return links
}

func matchesAny(owner string, names []string) bool {
	for _, n := range names {
		if normalize.SamePersonLoose(owner, n) {
			return true
		}
	}
	return false
}

// cleanOwners drops empty and whitespace-only entries.
func cleanOwners(persons []string) []string {
	var out []string
	for _, p := range persons {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
