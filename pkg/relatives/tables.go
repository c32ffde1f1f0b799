package relatives

import mapset "github.com/deckarep/golang-set/v2"

// Tables holds the word lists the extractor validates candidate first-name
// tokens against. They are injected data, not matching logic: extend the
// lists without touching the extraction rules.
type Tables struct {
	// StopWords are lower-cased tokens that look like capitalized words in
	// prose but are never first names: relationship terms, obituary
	// boilerplate, honorifics, place words.
	StopWords mapset.Set[string]

	// CommonFirstNames are lower-cased given names accepted without
	// further shape checks.
	CommonFirstNames mapset.Set[string]

	// MinTokenLen is the fallback rule for tokens not in either list: a
	// properly capitalized alphabetic token at least this long passes.
	MinTokenLen int
}

// DefaultMinTokenLen accepts unknown capitalized tokens of four letters or
// more. Shorter real names (Amy, Ian, Eva) are carried by the common list.
const DefaultMinTokenLen = 4

// DefaultTables returns the built-in word lists.
func DefaultTables() Tables {
	return Tables{
		StopWords:        mapset.NewSet(defaultStopWords...),
		CommonFirstNames: mapset.NewSet(defaultCommonFirstNames...),
		MinTokenLen:      DefaultMinTokenLen,
	}
}

// defaultStopWords covers the capitalized-but-not-a-name tokens that
// precede surnames in obituaries, court records, and directory prose.
var defaultStopWords = []string{
	// honorifics and titles
	"mr", "mrs", "ms", "miss", "dr", "prof", "rev", "hon", "sir",
	"judge", "officer", "deputy", "sheriff", "attorney", "detective",
	// relationship words
	"brother", "sister", "mother", "father", "son", "daughter",
	"wife", "husband", "aunt", "uncle", "cousin", "nephew", "niece",
	"grandmother", "grandfather", "grandson", "granddaughter",
	"stepmother", "stepfather", "widow", "widower", "fiancee", "fiance",
	// obituary and record boilerplate
	"late", "dear", "loving", "beloved", "devoted", "cherished",
	"survived", "preceded", "memory", "funeral", "obituary", "services",
	"visitation", "interment", "memorial", "family", "friends",
	// legal and civic words
	"estate", "trust", "county", "state", "united", "district",
	"plaintiff", "defendant", "petitioner", "respondent", "versus",
	// place-name fragments
	"street", "avenue", "north", "south", "east", "west",
	"new", "old", "saint", "san", "santa", "fort", "lake", "mount", "port",
	// common sentence starters
	"the", "and", "but", "his", "her", "their", "our", "this", "that",
}

// defaultCommonFirstNames is a compact list of frequent US given names.
// Membership short-circuits the capitalization and length checks, so short
// or unusually cased prints ("AMY SMITH") still extract.
var defaultCommonFirstNames = []string{
	"james", "john", "robert", "michael", "william", "david", "richard",
	"joseph", "thomas", "charles", "christopher", "daniel", "matthew",
	"anthony", "mark", "donald", "steven", "paul", "andrew", "joshua",
	"kenneth", "kevin", "brian", "george", "timothy", "ronald", "edward",
	"jason", "jeffrey", "ryan", "jacob", "gary", "nicholas", "eric",
	"jonathan", "stephen", "larry", "justin", "scott", "brandon",
	"benjamin", "samuel", "gregory", "alexander", "patrick", "frank",
	"raymond", "jack", "dennis", "jerry", "tyler", "aaron", "jose",
	"adam", "nathan", "henry", "zachary", "douglas", "peter", "kyle",
	"noah", "ethan", "ian", "carl", "arthur", "leo", "max", "sam",
	"mary", "patricia", "jennifer", "linda", "elizabeth", "barbara",
	"susan", "jessica", "sarah", "karen", "lisa", "nancy", "betty",
	"sandra", "margaret", "ashley", "kimberly", "emily", "donna",
	"michelle", "carol", "amanda", "melissa", "deborah", "stephanie",
	"dorothy", "rebecca", "sharon", "laura", "cynthia", "amy",
	"kathleen", "angela", "shirley", "brenda", "emma", "anna", "pamela",
	"nicole", "samantha", "katherine", "christine", "helen", "debra",
	"rachel", "carolyn", "janet", "maria", "olivia", "heather", "eva",
	"jane", "ruth", "alice", "joan", "judith", "diane", "julie", "joyce",
}
