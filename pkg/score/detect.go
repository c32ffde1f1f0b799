package score

import (
	"strings"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/normalize"
)

// Detect runs every corroborating-factor detector against one finding and
// returns the factors that fired. Detection is independent of name matching:
// a factor can fire on a finding whose name tier is none, and a perfect name
// match contributes no factors by itself.
//
// inferredRelatives carries the names of relatives extracted earlier in the
// run; provide it disjoint from the subject's own relative list so the two
// relative factors stay independent.
func Detect(subject *evidence.Subject, f *evidence.Finding, inferredRelatives []string) []evidence.Factor {
	body := f.Body()
	var factors []evidence.Factor

	if fac, ok := detectLocation(subject, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectPhone(subject, f, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectEmail(subject, f, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectUsername(subject, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectKeywords(subject, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectPersons(evidence.FactorKnownRelative, knownNames(subject), f, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectPersons(evidence.FactorRelative, inferredRelatives, f, body); ok {
		factors = append(factors, fac)
	}
	if fac, ok := detectAddress(subject, f, body); ok {
		factors = append(factors, fac)
	}
	return factors
}

// detectLocation fires when the subject's city or state token appears in
// the text. The city is checked first so the displayed value names the more
// specific match.
func detectLocation(subject *evidence.Subject, body string) (evidence.Factor, bool) {
	if subject.City != "" && containsTerm(body, subject.City) {
		return evidence.Factor{Tag: evidence.FactorLocation, Value: strings.ToLower(subject.City)}, true
	}
	if subject.State != "" && containsTerm(body, subject.State) {
		return evidence.Factor{Tag: evidence.FactorLocation, Value: strings.ToLower(subject.State)}, true
	}
	return evidence.Factor{}, false
}

// detectPhone fires when the subject's full phone digit string appears in
// the text or in the source's structured phone fields. Partial digit
// matches never count.
func detectPhone(subject *evidence.Subject, f *evidence.Finding, body string) (evidence.Factor, bool) {
	digits := normalize.Phone(subject.Phone)
	if digits == "" {
		return evidence.Factor{}, false
	}
	if normalize.PhoneInText(subject.Phone, body) {
		return evidence.Factor{Tag: evidence.FactorPhone, Value: digits}, true
	}
	for _, p := range f.Phones {
		if normalize.Phone(p) == digits {
			return evidence.Factor{Tag: evidence.FactorPhone, Value: digits}, true
		}
	}
	return evidence.Factor{}, false
}

func detectEmail(subject *evidence.Subject, f *evidence.Finding, body string) (evidence.Factor, bool) {
	email := normalize.Email(subject.Email)
	if email == "" {
		return evidence.Factor{}, false
	}
	if strings.Contains(strings.ToLower(body), email) {
		return evidence.Factor{Tag: evidence.FactorEmail, Value: email}, true
	}
	for _, e := range f.Emails {
		if normalize.Email(e) == email {
			return evidence.Factor{Tag: evidence.FactorEmail, Value: email}, true
		}
	}
	return evidence.Factor{}, false
}

func detectUsername(subject *evidence.Subject, body string) (evidence.Factor, bool) {
	username := strings.ToLower(strings.TrimSpace(subject.Username))
	if username == "" {
		return evidence.Factor{}, false
	}
	if containsTerm(body, username) {
		return evidence.Factor{Tag: evidence.FactorUsername, Value: username}, true
	}
	return evidence.Factor{}, false
}

// detectKeywords counts how many distinct user-supplied keywords appear in
// the text. The factor's Count drives the scaled keyword weight.
func detectKeywords(subject *evidence.Subject, body string) (evidence.Factor, bool) {
	var matched []string
	seen := make(map[string]bool)
	for _, kw := range subject.Keywords {
		key := normalize.Text(kw)
		if key == "" || seen[key] {
			continue
		}
		if containsTerm(body, kw) {
			seen[key] = true
			matched = append(matched, key)
		}
	}
	if len(matched) == 0 {
		return evidence.Factor{}, false
	}
	return evidence.Factor{
		Tag:   evidence.FactorKeyword,
		Value: strings.Join(matched, "+"),
		Count: len(matched),
	}, true
}

// detectPersons fires when any of the given person names appears in the
// text or in the source's structured person list.
func detectPersons(tag evidence.FactorTag, names []string, f *evidence.Finding, body string) (evidence.Factor, bool) {
	var matched []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if personMentioned(name, f, body) {
			matched = append(matched, normalize.Name(name))
		}
	}
	if len(matched) == 0 {
		return evidence.Factor{}, false
	}
	return evidence.Factor{Tag: tag, Value: strings.Join(matched, "+"), Count: len(matched)}, true
}

func personMentioned(name string, f *evidence.Finding, body string) bool {
	key := normalize.Name(name)
	if key == "" {
		return false
	}
	if strings.Contains(" "+normalize.Name(body)+" ", " "+key+" ") {
		return true
	}
	for _, p := range f.Persons {
		if normalize.SamePerson(p, name) {
			return true
		}
	}
	return false
}

func detectAddress(subject *evidence.Subject, f *evidence.Finding, body string) (evidence.Factor, bool) {
	if subject.Address == "" {
		return evidence.Factor{}, false
	}
	if f.Address != "" && normalize.SameAddress(subject.Address, f.Address) {
		return evidence.Factor{Tag: evidence.FactorAddress, Value: normalize.AddressKey(subject.Address)}, true
	}
	if normalize.AddressInText(subject.Address, body) {
		return evidence.Factor{Tag: evidence.FactorAddress, Value: normalize.AddressKey(subject.Address)}, true
	}
	return evidence.Factor{}, false
}

func knownNames(subject *evidence.Subject) []string {
	names := make([]string, 0, len(subject.Relatives))
	for _, r := range subject.Relatives {
		names = append(names, r.Name)
	}
	return names
}

// containsTerm reports whether a term appears in the body on word
// boundaries. Multi-word terms match as punctuation-insensitive phrases;
// single tokens must stand alone, so a state code "IL" never matches
// inside "will" and a username never matches inside a longer handle.
func containsTerm(body, term string) bool {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return false
	}
	if strings.ContainsAny(term, " \t") {
		return strings.Contains(" "+normalize.Name(body)+" ", " "+normalize.Name(term)+" ")
	}

	text := strings.ToLower(body)
	for start := 0; ; {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		s := start + i
		e := s + len(term)
		if (s == 0 || !isWordChar(text[s-1])) && (e == len(text) || !isWordChar(text[e])) {
			return true
		}
		start = s + 1
	}
}

// isWordChar treats underscores as word characters so handles like
// "j_smith88" keep their boundaries.
func isWordChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return true
	default:
		return false
	}
}
