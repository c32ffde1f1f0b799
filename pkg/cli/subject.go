package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
	"github.com/codeGROOVE-dev/dragnet/pkg/score"
)

// subjectFlags collects the identity flags shared by commands that need a
// subject. Flags override fields loaded from --subject-file.
type subjectFlags struct {
	file      string
	city      string
	state     string
	address   string
	email     string
	phone     string
	username  string
	keywords  []string
	relatives []string
}

func registerSubjectFlags(fs *pflag.FlagSet, sf *subjectFlags) {
	fs.StringVar(&sf.file, "subject-file", "", "YAML file describing the subject")
	fs.StringVar(&sf.city, "city", "", "subject's city")
	fs.StringVar(&sf.state, "state", "", "subject's state or region")
	fs.StringVar(&sf.address, "address", "", "subject's street address")
	fs.StringVar(&sf.email, "email", "", "subject's email address")
	fs.StringVar(&sf.phone, "phone", "", "subject's phone number, any formatting")
	fs.StringVar(&sf.username, "username", "", "subject's online handle")
	fs.StringArrayVar(&sf.keywords, "keyword", nil, "employer, school, hobby or other term (repeatable)")
	fs.StringArrayVar(&sf.relatives, "relative", nil, `known relative as "Name" or "Name:relation" (repeatable)`)
}

// buildSubject assembles the subject from the YAML file, the positional
// name argument, and the identity flags, in that order of precedence.
func buildSubject(args []string, sf *subjectFlags) (*evidence.Subject, error) {
	var subject evidence.Subject

	if sf.file != "" {
		data, err := os.ReadFile(sf.file)
		if err != nil {
			return nil, fmt.Errorf("read subject file: %w", err)
		}
		if err := yaml.Unmarshal(data, &subject); err != nil {
			return nil, fmt.Errorf("parse subject file: %w", err)
		}
	}

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		subject.Name = args[0]
	}
	if sf.city != "" {
		subject.City = sf.city
	}
	if sf.state != "" {
		subject.State = sf.state
	}
	if sf.address != "" {
		subject.Address = sf.address
	}
	if sf.email != "" {
		subject.Email = sf.email
	}
	if sf.phone != "" {
		subject.Phone = sf.phone
	}
	if sf.username != "" {
		subject.Username = sf.username
	}
	subject.Keywords = append(subject.Keywords, sf.keywords...)
	for _, raw := range sf.relatives {
		name, relation, _ := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		subject.Relatives = append(subject.Relatives, evidence.KnownRelative{
			Name:     name,
			Relation: strings.TrimSpace(relation),
		})
	}

	if err := subject.Validate(); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	return &subject, nil
}

// loadWeights returns the scoring weights, applying a YAML override file
// on top of the defaults when one is given.
func loadWeights(path string) (score.Weights, error) {
	weights := score.Defaults()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return weights, fmt.Errorf("read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return weights, fmt.Errorf("parse weights file: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return weights, fmt.Errorf("weights: %w", err)
	}
	return weights, nil
}
