// CLAUDE:SUMMARY Rule table schema: literal/computed rules, Strong/Medium/Weak tiers, title and company tables per locale.
package rules

import "fmt"

// Kind tells the engine how a rule produces its replacement.
type Kind string

const (
	// KindLiteral splices the rule's replacement template.
	KindLiteral Kind = "literal"
	// KindComputed derives the replacement from the matched text.
	KindComputed Kind = "computed"
)

// Derivation names a computed replacement. The set is closed: the engine
// switches over it exhaustively.
type Derivation string

const (
	// DerivationChiefOfficer turns "Chief X Officer" spans into "CXO".
	DerivationChiefOfficer Derivation = "chief_officer"
)

// Derivations lists every derivation the engine knows.
func Derivations() []Derivation {
	return []Derivation{DerivationChiefOfficer}
}

// Rule is a single rewrite rule of the title domain.
//
// Pattern is an RE2 pattern matched case-insensitively against the
// accent-folded working string. For literal rules Replacement is an RE2
// template ($1, ${name}, $$) expanded against the original text.
type Rule struct {
	Pattern     string     `yaml:"pattern" json:"pattern"`
	Replacement string     `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Kind        Kind       `yaml:"kind,omitempty" json:"kind,omitempty"`
	Derivation  Derivation `yaml:"derivation,omitempty" json:"derivation,omitempty"`
}

// EffectiveKind returns the rule kind, literal when unset.
func (r Rule) EffectiveKind() Kind {
	if r.Kind == "" {
		return KindLiteral
	}
	return r.Kind
}

// Validate checks the shape of a rule. Pattern compilation is left to the engine.
func (r Rule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("empty pattern")
	}
	switch r.EffectiveKind() {
	case KindLiteral:
		if r.Derivation != "" {
			return fmt.Errorf("pattern %q: literal rule cannot name derivation %q", r.Pattern, r.Derivation)
		}
	case KindComputed:
		if !knownDerivation(r.Derivation) {
			return fmt.Errorf("pattern %q: unknown derivation %q", r.Pattern, r.Derivation)
		}
	default:
		return fmt.Errorf("pattern %q: unknown kind %q", r.Pattern, r.Kind)
	}
	return nil
}

func knownDerivation(d Derivation) bool {
	for _, known := range Derivations() {
		if d == known {
			return true
		}
	}
	return false
}

// Tier is a priority bucket of title rules.
type Tier int

const (
	Strong Tier = iota
	Medium
	Weak
)

// Tiers returns the tiers in application order.
func Tiers() []Tier {
	return []Tier{Strong, Medium, Weak}
}

func (t Tier) String() string {
	switch t {
	case Strong:
		return "strong"
	case Medium:
		return "medium"
	case Weak:
		return "weak"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// TitleRules is the rule set of one locale for job titles.
type TitleRules struct {
	Strong []Rule `yaml:"strong,omitempty" json:"strong,omitempty"`
	Medium []Rule `yaml:"medium,omitempty" json:"medium,omitempty"`
	Weak   []Rule `yaml:"weak,omitempty" json:"weak,omitempty"`
}

// Tier returns the rules of tier t in table order.
func (tr *TitleRules) Tier(t Tier) []Rule {
	if tr == nil {
		return nil
	}
	switch t {
	case Strong:
		return tr.Strong
	case Medium:
		return tr.Medium
	case Weak:
		return tr.Weak
	}
	return nil
}

// Len returns the total number of rules over all tiers.
func (tr *TitleRules) Len() int {
	if tr == nil {
		return 0
	}
	return len(tr.Strong) + len(tr.Medium) + len(tr.Weak)
}

func (tr *TitleRules) validate() error {
	for _, t := range Tiers() {
		for i, r := range tr.Tier(t) {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s rule %d: %w", t, i, err)
			}
		}
	}
	return nil
}

// CompanyRules holds the company-name tables of one locale.
// LegalSuffixes is ordered: the first matching suffix wins.
type CompanyRules struct {
	LegalSuffixes []string `yaml:"legal_suffixes,omitempty" json:"legal_suffixes,omitempty"`
	NoiseWords    []string `yaml:"noise_words,omitempty" json:"noise_words,omitempty"`
}
