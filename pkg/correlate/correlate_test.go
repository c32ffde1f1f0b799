package correlate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

func TestRunCorroboratedFindingConfirms(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{
		Name:  "John Smith",
		City:  "Springfield",
		Phone: "5551234567",
	}
	findings := []evidence.Finding{{
		Source:   "websearch",
		Category: evidence.CategorySearch,
		Text:     "John Smith, 123 Oak St, Springfield, IL - phone (555) 123-4567",
		Locator:  "https://directory.example.com/john-smith",
	}}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed) != 1 {
		t.Fatalf("Confirmed = %+v, want one entry", report.Confirmed)
	}
	got := report.Confirmed[0]
	if got.Tier != evidence.TierExact {
		t.Errorf("Tier = %q, want %q", got.Tier, evidence.TierExact)
	}
	if got.Confidence < 0.60 {
		t.Errorf("Confidence = %.3f, want >= 0.60", got.Confidence)
	}
	wantTags := map[evidence.FactorTag]bool{evidence.FactorPhone: false, evidence.FactorLocation: false}
	for _, f := range got.Factors {
		if _, ok := wantTags[f.Tag]; ok {
			wantTags[f.Tag] = true
		}
	}
	for tag, seen := range wantTags {
		if !seen {
			t.Errorf("factor %q did not fire; factors = %+v", tag, got.Factors)
		}
	}
}

func TestRunNameOnlyNeverConfirms(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "John Smith"}
	findings := []evidence.Finding{{
		Source:   "websearch",
		Category: evidence.CategorySearch,
		Text:     "A John Smith competed in the 2019 marathon",
		Locator:  "https://news.example.com/marathon",
	}}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed) != 0 {
		t.Fatalf("Confirmed = %+v, want none for an uncorroborated name hit", report.Confirmed)
	}
	if len(report.Possible) != 1 {
		t.Fatalf("Possible = %+v, want one entry", report.Possible)
	}
	got := report.Possible[0]
	if got.Confidence > 0.55 {
		t.Errorf("Confidence = %.3f, want <= 0.55 with zero factors", got.Confidence)
	}
	if len(got.Factors) != 0 {
		t.Errorf("Factors = %+v, want none", got.Factors)
	}
}

func TestRunObituaryYieldsBloodRelative(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "Michael Petrie"}
	findings := []evidence.Finding{{
		Source:   "obituaries",
		Category: evidence.CategoryNews,
		Text:     "Moira Petrie, loving sister, survived by her brother Michael.",
		Locator:  "https://obits.example.com/petrie",
	}}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Relatives) != 1 {
		t.Fatalf("Relatives = %+v, want one", report.Relatives)
	}
	link := report.Relatives[0]
	if link.Name != "Moira Petrie" {
		t.Errorf("Name = %q, want %q", link.Name, "Moira Petrie")
	}
	if link.Relation != evidence.RelationBlood {
		t.Errorf("Relation = %q, want %q", link.Relation, evidence.RelationBlood)
	}
	// The obituary itself never mentions the subject's first and last name
	// near each other, so the finding is dropped even though its extraction
	// survives.
	if len(report.Confirmed)+len(report.Possible) != 0 {
		t.Errorf("got %d retained results, want 0", len(report.Confirmed)+len(report.Possible))
	}
	if report.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", report.Rejected)
	}
}

func TestRunSharedAddressPartner(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{
		Name:    "Michael Petrie",
		Address: "456 Elm Street Apt 2",
	}
	findings := []evidence.Finding{{
		Source:   "propertyrecords",
		Category: evidence.CategoryProperty,
		Text:     "Parcel 12-044: 456 Elm St. Owner of record: Yana Shapiro.",
		Address:  "456 Elm St",
		Persons:  []string{"Yana Shapiro"},
		Locator:  "property:12-044",
	}}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Relatives) != 1 {
		t.Fatalf("Relatives = %+v, want the co-resident owner", report.Relatives)
	}
	link := report.Relatives[0]
	if link.Name != "Yana Shapiro" {
		t.Errorf("Name = %q, want %q", link.Name, "Yana Shapiro")
	}
	if link.Relation != evidence.RelationSpouse {
		t.Errorf("Relation = %q, want %q", link.Relation, evidence.RelationSpouse)
	}
	if link.Confidence < 0.90-1e-9 {
		t.Errorf("Confidence = %.3f, want 0.90", link.Confidence)
	}
	if len(report.Addresses) != 1 {
		t.Fatalf("Addresses = %+v, want one", report.Addresses)
	}
	if report.Addresses[0].Key != "456 elm st" {
		t.Errorf("address Key = %q, want %q", report.Addresses[0].Key, "456 elm st")
	}
}

func TestRunInferredRelativeBoostsOtherFindings(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "Michael Petrie"}
	findings := []evidence.Finding{
		{
			Source:   "obituaries",
			Category: evidence.CategoryNews,
			Text:     "Moira Petrie, loving sister, survived by her brother Michael.",
			Locator:  "https://obits.example.com/petrie",
		},
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "Michael Petrie and Moira Petrie attended the gala together.",
			Locator:  "https://news.example.com/gala",
		},
	}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed) != 1 {
		t.Fatalf("Confirmed = %+v, want the gala finding", report.Confirmed)
	}
	got := report.Confirmed[0]
	var relativeFired bool
	for _, f := range got.Factors {
		if f.Tag == evidence.FactorRelative {
			relativeFired = true
		}
	}
	if !relativeFired {
		t.Errorf("relative factor did not fire; factors = %+v", got.Factors)
	}
	if got.Confidence < 0.60 {
		t.Errorf("Confidence = %.3f, want >= 0.60", got.Confidence)
	}
}

func TestRunCourtSourceStrictness(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "John Smith"}
	text := "John lives with his brother Mark Smith"

	courtOnly := []evidence.Finding{{
		Source:   "courtrecords",
		Category: evidence.CategoryCourt,
		Text:     text,
		Locator:  "court:2024-cv-1001",
	}}
	report, err := engine.Run(subject, courtOnly)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed)+len(report.Possible) != 0 {
		t.Errorf("court proximity pattern retained: %+v", report.Possible)
	}
	if report.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", report.Rejected)
	}

	ordinary := []evidence.Finding{{
		Source:   "websearch",
		Category: evidence.CategorySearch,
		Text:     text,
		Locator:  "https://blog.example.com/brothers",
	}}
	report, err = engine.Run(subject, ordinary)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Possible) != 1 {
		t.Fatalf("Possible = %+v, want the proximity hit", report.Possible)
	}
	if report.Possible[0].Tier != evidence.TierProximity {
		t.Errorf("Tier = %q, want %q", report.Possible[0].Tier, evidence.TierProximity)
	}
}

func TestRunLocatorDedup(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "John Smith"}
	findings := []evidence.Finding{
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "John Smith was elected treasurer",
			Locator:  "https://example.com/page?utm=1",
		},
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "John Smith was elected treasurer",
			Locator:  "https://example.com/page/",
		},
	}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(report.Confirmed) + len(report.Possible); got != 1 {
		t.Errorf("retained results = %d, want 1 after locator dedup", got)
	}
	if report.Rejected != 0 {
		t.Errorf("Rejected = %d, want 0; duplicates are discarded, not rejected", report.Rejected)
	}
}

func TestRunMalformedFindings(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{Name: "John Smith"}
	findings := []evidence.Finding{
		{Source: "websearch", Locator: "https://example.com/empty"},
		{Source: "websearch", Text: "John Smith was here"},
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "John Smith was elected treasurer",
			Locator:  "https://example.com/ok",
		},
	}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v; malformed findings must never abort the batch", err)
	}
	if report.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", report.Rejected)
	}
	if len(report.Possible) != 1 {
		t.Errorf("Possible = %+v, want the valid finding", report.Possible)
	}
}

func TestRunEmptyInput(t *testing.T) {
	engine := New()
	report, err := engine.Run(&evidence.Subject{Name: "John Smith"}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed) != 0 || len(report.Possible) != 0 || report.Rejected != 0 {
		t.Errorf("empty input produced %+v, want empty report", report)
	}
}

func TestRunSubjectValidation(t *testing.T) {
	engine := New()
	if _, err := engine.Run(nil, nil); err == nil {
		t.Error("Run(nil subject) error = nil, want error")
	}
	if _, err := engine.Run(&evidence.Subject{}, nil); err == nil {
		t.Error("Run(empty subject) error = nil, want error")
	}
}

func TestRunScoreBounds(t *testing.T) {
	engine := New()
	subject := &evidence.Subject{
		Name:     "John Smith",
		Address:  "123 Oak St, Springfield, IL",
		City:     "Springfield",
		State:    "IL",
		Email:    "jsmith@example.com",
		Phone:    "5551234567",
		Username: "jsmith88",
		Keywords: []string{"marathon", "Acme Corp"},
		Relatives: []evidence.KnownRelative{
			{Name: "Jane Smith", Relation: "sister"},
		},
	}
	findings := []evidence.Finding{{
		Source:   "peoplefinder",
		Category: evidence.CategoryPeopleSearch,
		Text: "John Smith, 123 Oak St, Springfield, IL. Phone (555) 123-4567. " +
			"Email jsmith@example.com, online as jsmith88. Ran the marathon for Acme Corp. " +
			"Related to Jane Smith.",
		Persons: []string{"Jane Smith"},
		Locator: "https://people.example.com/john-smith",
	}}

	report, err := engine.Run(subject, findings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Confirmed) != 1 {
		t.Fatalf("Confirmed = %+v, want one", report.Confirmed)
	}
	if got := report.Confirmed[0].Confidence; got > 0.98 {
		t.Errorf("Confidence = %.3f, want capped at 0.98", got)
	}
}

func TestRunIdempotent(t *testing.T) {
	subject := &evidence.Subject{
		Name:    "Michael Petrie",
		Address: "456 Elm Street Apt 2",
		City:    "Springfield",
	}
	findings := []evidence.Finding{
		{
			Source:   "obituaries",
			Category: evidence.CategoryNews,
			Text:     "Moira Petrie, loving sister, survived by her brother Michael.",
			Locator:  "https://obits.example.com/petrie",
		},
		{
			Source:   "propertyrecords",
			Category: evidence.CategoryProperty,
			Text:     "Parcel 12-044: 456 Elm St. Owner of record: Yana Shapiro.",
			Address:  "456 Elm St",
			Persons:  []string{"Yana Shapiro"},
			Locator:  "property:12-044",
		},
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "Michael Petrie of Springfield spoke at the council meeting.",
			Locator:  "https://news.example.com/council",
		},
		{
			Source:   "websearch",
			Category: evidence.CategorySearch,
			Text:     "Michael Petrie of Springfield spoke at the council meeting.",
			Locator:  "https://news.example.com/council?ref=home",
		},
		{Source: "websearch", Text: "no locator on this one"},
	}

	run := func(fs []evidence.Finding) *evidence.Report {
		t.Helper()
		report, err := New().Run(subject, fs)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return report
	}

	first := run(findings)

	reversed := make([]evidence.Finding, 0, len(findings))
	for i := len(findings) - 1; i >= 0; i-- {
		reversed = append(reversed, findings[i])
	}
	second := run(reversed)

	// Locator-level duplicates keep whichever copy arrives first, so strip
	// the raw finding payloads and compare everything the engine derives.
	scrub := func(r *evidence.Report) *evidence.Report {
		for i := range r.Confirmed {
			r.Confirmed[i].Finding.Locator = ""
		}
		for i := range r.Possible {
			r.Possible[i].Finding.Locator = ""
		}
		return r
	}
	if diff := cmp.Diff(scrub(first), scrub(second)); diff != "" {
		t.Errorf("reports differ by input order (-first +reversed):\n%s", diff)
	}
}
