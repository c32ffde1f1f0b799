// Package normalize canonicalizes free text, URLs, addresses, and phone and
// email strings so that evidence from different sources compares equal when
// it refers to the same thing. Every comparison in the correlation engine
// goes through these keys rather than raw source strings.
package normalize

import (
	"strings"
	"unicode"
)

// URLKey reduces a URL to a comparison key: scheme, "www." prefix, query
// string, fragment, and trailing slash are stripped and the rest is
// lower-cased. The same page reached via different tracking parameters
// yields one key.
func URLKey(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.ToLower(u)
}

// streetAbbrevs maps spelled-out street suffixes and unit designators to
// their canonical short forms. Keys and values are lower case; replacement
// happens token-by-token on the street line.
var streetAbbrevs = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"lane":      "ln",
	"road":      "rd",
	"court":     "ct",
	"circle":    "cir",
	"place":     "pl",
	"terrace":   "ter",
	"parkway":   "pkwy",
	"highway":   "hwy",
	"apartment": "apt",
	"suite":     "ste",
	"unit":      "unit",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

// canonStreetTokens lower-cases s, replaces punctuation with spaces, and
// maps each token through the street abbreviation table.
func canonStreetTokens(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if abbrev, ok := streetAbbrevs[tok]; ok {
			tokens[i] = abbrev
		}
	}
	return tokens
}

// AddressKey reduces a postal address to a comparison key: the street line
// (everything before the first comma), lower-cased, with common suffix and
// unit abbreviations canonicalized and punctuation collapsed to single
// spaces. "456 Elm Street Apt 2" and "456 Elm St." both yield keys that
// contain "456 elm st".
func AddressKey(address string) string {
	line := address
	if i := strings.Index(line, ","); i >= 0 {
		line = line[:i]
	}
	return strings.Join(canonStreetTokens(line), " ")
}

// SameAddress reports whether two address strings refer to the same
// location: one normalized key must be a substring of the other, which
// tolerates unit-number and suffix variation between sources.
func SameAddress(a, b string) bool {
	ka := AddressKey(a)
	kb := AddressKey(b)
	if ka == "" || kb == "" {
		return false
	}
	// Token-boundary containment so "12 Oak St" never matches "512 Oak St".
	ka = " " + ka + " "
	kb = " " + kb + " "
	return strings.Contains(ka, kb) || strings.Contains(kb, ka)
}

// AddressInText reports whether the address's street line appears in free
// text. The whole text is canonicalized with the same token rules as
// AddressKey, so "456 Elm Street Apt 2" is found in "lives at 456 Elm St."
// and vice versa. Matches are token-boundary aligned.
func AddressInText(address, text string) bool {
	key := AddressKey(address)
	if key == "" {
		return false
	}
	canon := " " + strings.Join(canonStreetTokens(text), " ") + " "
	return strings.Contains(canon, " "+key+" ")
}

// Phone strips everything but digits. "(555) 123-4567" becomes "5551234567".
func Phone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneInText reports whether the full normalized digit string of phone
// appears contiguously in the digit-stripped form of text. Partial matches
// (last seven digits, area code only) are deliberately not accepted; they
// produce false positives across unrelated numbers.
func PhoneInText(phone, text string) bool {
	digits := Phone(phone)
	if len(digits) < 7 {
		return false
	}
	return strings.Contains(Phone(text), digits)
}

// Email lower-cases and trims an email address.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Text lower-cases free text and collapses all whitespace runs to single
// spaces. Matching windows are measured on this form.
func Text(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Name reduces a person name to a comparison key: lower-cased, punctuation
// dropped, whitespace collapsed. "Petrie, Moira" and "Moira Petrie" share
// the same token set but not the same key; callers that need order
// insensitivity compare token-wise.
func Name(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SamePerson reports whether two person names refer to the same individual:
// exact normalized equality, or equality of first and last tokens in either
// order, which handles "Last, First" records.
func SamePerson(a, b string) bool {
	ka := Name(a)
	kb := Name(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}
	at := strings.Fields(ka)
	bt := strings.Fields(kb)
	if len(at) < 2 || len(bt) < 2 {
		return false
	}
	aFirst, aLast := at[0], at[len(at)-1]
	bFirst, bLast := bt[0], bt[len(bt)-1]
	if aFirst == bFirst && aLast == bLast {
		return true
	}
	return aFirst == bLast && aLast == bFirst
}

// SamePersonLoose extends SamePerson with partial matching: one normalized
// name contained whole within the other, so "John Smith Jr" matches "John
// Smith". Property records list names with suffixes and middle names that
// strict first+last comparison misses.
func SamePersonLoose(a, b string) bool {
	if SamePerson(a, b) {
		return true
	}
	ka := Name(a)
	kb := Name(b)
	if ka == "" || kb == "" {
		return false
	}
	ka = " " + ka + " "
	kb = " " + kb + " "
	return strings.Contains(ka, kb) || strings.Contains(kb, ka)
}
