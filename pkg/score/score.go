// Package score converts a finding's name-match tier and its independently
// detected corroborating factors into a bounded confidence score and a
// confirmed/possible classification. The scoring policy is a declarative
// weight table folded by one accumulator, so every increment is auditable
// and tunable without touching the fold itself.
package score

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/dragnet/pkg/evidence"
)

// Default scoring constants. The keyword-only bases are ordered by query
// provenance: a hit from a query containing the subject's name outranks an
// exact multiword keyword hit, which outranks a generic keyword probe. The
// ordering is fixed; the constants themselves are tunable.
const (
	DefaultBaseExact          = 0.45
	DefaultBaseProximity      = 0.25
	DefaultBaseNameQuery      = 0.50
	DefaultBaseExactKeyword   = 0.42
	DefaultBaseGenericKeyword = 0.35
	DefaultNoFactorCap        = 0.55
	DefaultCap                = 0.98
	DefaultConfirmThreshold   = 0.60
)

// FactorWeight is one (name, weight, cap) entry in the scoring table.
// Step and Max apply only to count-scaled factors such as keywords, where
// each extra distinct match adds Step up to the Max ceiling.
type FactorWeight struct {
	Tag  evidence.FactorTag `yaml:"tag"`
	Add  float64            `yaml:"add"`
	Step float64            `yaml:"step,omitempty"`
	Max  float64            `yaml:"max,omitempty"`
}

// Weights is the complete scoring policy. Load overrides from config with
// Validate before use; Defaults returns the standard policy.
type Weights struct {
	BaseExact          float64        `yaml:"base_exact"`
	BaseProximity      float64        `yaml:"base_proximity"`
	BaseNameQuery      float64        `yaml:"base_name_query"`
	BaseExactKeyword   float64        `yaml:"base_exact_keyword"`
	BaseGenericKeyword float64        `yaml:"base_generic_keyword"`
	NoFactorCap        float64        `yaml:"no_factor_cap"`
	Cap                float64        `yaml:"cap"`
	ConfirmThreshold   float64        `yaml:"confirm_threshold"`
	Factors            []FactorWeight `yaml:"factors"`
}

// Defaults returns the standard scoring policy.
func Defaults() Weights {
	return Weights{
		BaseExact:          DefaultBaseExact,
		BaseProximity:      DefaultBaseProximity,
		BaseNameQuery:      DefaultBaseNameQuery,
		BaseExactKeyword:   DefaultBaseExactKeyword,
		BaseGenericKeyword: DefaultBaseGenericKeyword,
		NoFactorCap:        DefaultNoFactorCap,
		Cap:                DefaultCap,
		ConfirmThreshold:   DefaultConfirmThreshold,
		Factors: []FactorWeight{
			{Tag: evidence.FactorPhone, Add: 0.20},
			{Tag: evidence.FactorEmail, Add: 0.20},
			{Tag: evidence.FactorUsername, Add: 0.20},
			{Tag: evidence.FactorLocation, Add: 0.15},
			{Tag: evidence.FactorRelative, Add: 0.25},
			{Tag: evidence.FactorKnownRelative, Add: 0.25},
			{Tag: evidence.FactorKeyword, Add: 0.15, Step: 0.05, Max: 0.25},
			{Tag: evidence.FactorAddress, Add: 0.30},
		},
	}
}

// Validate checks the structural rules the policy must keep regardless of
// tuning: the no-factor clamp must stay below the confirm threshold (this
// is what guarantees name-only evidence is never confirmed), the cap must
// leave room for doubt, and the keyword-only bases must keep their order.
func (w *Weights) Validate() error {
	if w.NoFactorCap >= w.ConfirmThreshold {
		return fmt.Errorf("no-factor cap %.2f must stay below confirm threshold %.2f",
			w.NoFactorCap, w.ConfirmThreshold)
	}
	if w.Cap <= 0 || w.Cap >= 1.0 {
		return errors.New("cap must be in (0, 1): a confidence of 1.0 would claim certainty")
	}
	if w.BaseNameQuery < w.BaseExactKeyword || w.BaseExactKeyword < w.BaseGenericKeyword {
		return errors.New("keyword-only bases must be ordered name query >= exact keyword >= generic")
	}
	for _, f := range w.Factors {
		if f.Add < 0 || f.Step < 0 || f.Max < 0 {
			return fmt.Errorf("factor %q has a negative weight", f.Tag)
		}
	}
	return nil
}

// weightFor returns the table entry for a factor tag.
func (w *Weights) weightFor(tag evidence.FactorTag) (FactorWeight, bool) {
	for _, f := range w.Factors {
		if f.Tag == tag {
			return f, true
		}
	}
	return FactorWeight{}, false
}

// Scorer applies a Weights policy to findings.
type Scorer struct {
	weights Weights
	logger  *slog.Logger
}

// New creates a Scorer. A nil logger falls back to slog.Default.
func New(weights Weights, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{weights: weights, logger: logger}
}

// Score folds the tier base and each detected factor's weight into a final
// confidence, applies the zero-factor clamp and the global cap, and
// classifies the result. The returned reasons are display strings, one per
// scoring decision ("name:exact", "phone:5551234567", "cap:no-corroboration").
//
// A tier of none with no keyword factor has no match basis at all and is
// rejected with a zero score.
func (s *Scorer) Score(tier evidence.Tier, produced evidence.QueryKind, factors []evidence.Factor) (confidence float64, class evidence.Class, reasons []string) {
	base, baseReason, ok := s.base(tier, produced, factors)
	if !ok {
		return 0, evidence.ClassRejected, nil
	}

	total := base
	reasons = append(reasons, baseReason)

	for _, f := range factors {
		w, known := s.weights.weightFor(f.Tag)
		if !known {
			continue
		}
		add := w.Add
		if f.Count > 1 && w.Step > 0 {
			add += w.Step * float64(f.Count-1)
			if w.Max > 0 && add > w.Max {
				add = w.Max
			}
		}
		total += add
		if f.Value != "" {
			reasons = append(reasons, string(f.Tag)+":"+f.Value)
		} else {
			reasons = append(reasons, string(f.Tag))
		}
	}

	// Name presence alone is not proof of identity: with zero corroborating
	// factors the score is clamped below the confirm threshold.
	if len(factors) == 0 && total > s.weights.NoFactorCap {
		total = s.weights.NoFactorCap
		reasons = append(reasons, "cap:no-corroboration")
	}

	if total > s.weights.Cap {
		total = s.weights.Cap
	}

	class = evidence.ClassPossible
	if total >= s.weights.ConfirmThreshold {
		class = evidence.ClassConfirmed
	}

	s.logger.Debug("scored finding",
		"tier", tier, "factors", len(factors), "confidence", total, "class", class)
	return total, class, dedupeReasons(reasons)
}

// base resolves the starting score for a name tier. Tier none qualifies
// only when a keyword factor fired; its base then depends on which query
// produced the finding.
func (s *Scorer) base(tier evidence.Tier, produced evidence.QueryKind, factors []evidence.Factor) (base float64, reason string, ok bool) {
	switch tier {
	case evidence.TierExact:
		return s.weights.BaseExact, "name:exact", true
	case evidence.TierAdjacent:
		return s.weights.BaseExact, "name:adjacent", true
	case evidence.TierProximity:
		return s.weights.BaseProximity, "name:proximity", true
	case evidence.TierNone:
	default:
	}

	if !hasKeywordFactor(factors) {
		return 0, "", false
	}
	switch produced {
	case evidence.QueryWithName:
		return s.weights.BaseNameQuery, "keyword-only:name-query", true
	case evidence.QueryExactPhrase:
		return s.weights.BaseExactKeyword, "keyword-only:exact", true
	case evidence.QueryGeneric:
		return s.weights.BaseGenericKeyword, "keyword-only:generic", true
	default:
		return s.weights.BaseGenericKeyword, "keyword-only:generic", true
	}
}

func hasKeywordFactor(factors []evidence.Factor) bool {
	for _, f := range factors {
		if f.Tag == evidence.FactorKeyword {
			return true
		}
	}
	return false
}

// dedupeReasons removes repeated reason strings, keeping first occurrence order.
func dedupeReasons(reasons []string) []string {
	seen := make(map[string]bool, len(reasons))
	var unique []string
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			unique = append(unique, r)
		}
	}
	return unique
}
