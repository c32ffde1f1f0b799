package query

import (
	"strings"
	"testing"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

func TestBuild(t *testing.T) {
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

	queries := Build(subject)
	if len(queries) == 0 {
		t.Fatal("Build() returned no queries")
	}

	byText := make(map[string]evidence.QueryKind, len(queries))
	for _, q := range queries {
		if _, dup := byText[q.Text]; dup {
			t.Errorf("duplicate query %q", q.Text)
		}
		byText[q.Text] = q.Kind
	}

	wantKind := map[string]evidence.QueryKind{
		`"John Smith"`:              evidence.QueryWithName,
		`"John Smith" Springfield`:  evidence.QueryWithName,
		`"John Smith" "123 Oak St"`: evidence.QueryWithName,
		`"John Smith" marathon`:     evidence.QueryWithName,
		`"John Smith" "Jane Smith"`: evidence.QueryWithName,
		`"Acme Corp"`:               evidence.QueryExactPhrase,
		`jsmith88`:                  evidence.QueryGeneric,
		`marathon`:                  evidence.QueryGeneric,
	}
	for text, kind := range wantKind {
		got, ok := byText[text]
		if !ok {
			t.Errorf("query %q missing; got %v", text, textsOf(queries))
			continue
		}
		if got != kind {
			t.Errorf("query %q kind = %q, want %q", text, got, kind)
		}
	}

	// Multiword keywords never become bare generic probes.
	if _, ok := byText["Acme Corp"]; ok {
		t.Error(`unquoted "Acme Corp" emitted as a generic probe`)
	}
}

func TestBuildMinimalSubject(t *testing.T) {
	queries := Build(&evidence.Subject{Name: "Prince"})
	if len(queries) != 1 {
		t.Fatalf("Build() = %v, want just the quoted name", textsOf(queries))
	}
	if queries[0].Text != `"Prince"` || queries[0].Kind != evidence.QueryWithName {
		t.Errorf("got %+v, want quoted name query", queries[0])
	}
}

func TestBuildEmptySubject(t *testing.T) {
	if got := Build(nil); got != nil {
		t.Errorf("Build(nil) = %v, want nil", got)
	}
	if got := Build(&evidence.Subject{}); got != nil {
		t.Errorf("Build(empty) = %v, want nil", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	subject := &evidence.Subject{
		Name:     "John Smith",
		Keywords: []string{"marathon", "Acme Corp"},
	}
	first := Build(subject)
	second := Build(subject)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("query %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func textsOf(queries []Query) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		out = append(out, q.Text)
	}
	return out
}

func TestStreetLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123 Oak St, Springfield, IL", "123 Oak St"},
		{"123 Oak St", "123 Oak St"},
		{"  456 Elm Street Apt 2 , Dayton", "456 Elm Street Apt 2"},
	}
	for _, tt := range tests {
		if got := streetLine(tt.in); got != tt.want {
			t.Errorf("streetLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildSkipsBlankFields(t *testing.T) {
	subject := &evidence.Subject{
		Name:     "John Smith",
		Keywords: []string{"", "  "},
		Relatives: []evidence.KnownRelative{
			{Name: "   "},
		},
	}
	for _, q := range Build(subject) {
		if strings.HasSuffix(q.Text, " ") || strings.Contains(q.Text, `""`) {
			t.Errorf("blank field leaked into query %q", q.Text)
		}
	}
}
