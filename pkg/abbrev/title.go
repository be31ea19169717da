// CLAUDE:SUMMARY Tiered title engine: Strong/Medium/Weak rules applied destructively on an accent-folded view, spliced into the original text.
package abbrev

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"golang.org/x/text/language"
)

var multiSpace = regexp.MustCompile(`[\s\p{Zs}]{2,}`)

// compiledRule is a rules.Rule with its pattern folded and compiled.
type compiledRule struct {
	re          *regexp.Regexp
	kind        rules.Kind
	replacement string
	derivation  rules.Derivation
}

// titleRuleSet holds the compiled tiers of one locale, indexed by rules.Tier.
type titleRuleSet struct {
	locale string
	tag    language.Tag
	tiers  [][]compiledRule
}

func compileTitleRules(locale string, tr *rules.TitleRules) (*titleRuleSet, error) {
	set := &titleRuleSet{
		locale: locale,
		tag:    language.Make(locale),
		tiers:  make([][]compiledRule, len(rules.Tiers())),
	}
	for _, t := range rules.Tiers() {
		for i, r := range tr.Tier(t) {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%s %s rule %d: %w", locale, t, i, err)
			}
			// Patterns are folded like the text they run against.
			re, err := regexp.Compile("(?i)" + FoldAccents(r.Pattern))
			if err != nil {
				return nil, fmt.Errorf("%s %s rule %d: %w", locale, t, i, err)
			}
			set.tiers[t] = append(set.tiers[t], compiledRule{
				re:          re,
				kind:        r.EffectiveKind(),
				replacement: r.Replacement,
				derivation:  r.Derivation,
			})
		}
	}
	return set, nil
}

// apply runs every tier in order over the trimmed title. Each rule sees the
// string as rewritten by the rules before it.
func (s *titleRuleSet) apply(title string) string {
	working := strings.TrimSpace(title)
	for _, tier := range s.tiers {
		for i := range tier {
			working = tier[i].apply(working, s.tag)
		}
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(working, " "))
}

// apply replaces every non-overlapping match of r in working. Matching runs
// on the folded view; replacements and derivations read the original text.
func (r *compiledRule) apply(working string, tag language.Tag) string {
	v := newFoldedView(working)
	matches := r.re.FindAllStringSubmatchIndex(v.folded, -1)
	if len(matches) == 0 {
		return working
	}

	var b strings.Builder
	b.Grow(len(working))
	last := 0
	for _, m := range matches {
		idx := v.mapSubmatches(m)
		start, end := idx[0], idx[1]
		if start < last {
			// Two matches landed in the same canonical segment.
			continue
		}
		b.WriteString(working[last:start])
		switch r.kind {
		case rules.KindComputed:
			b.WriteString(derive(r.derivation, working[start:end], tag))
		default:
			b.Write(r.re.ExpandString(nil, r.replacement, working, idx))
		}
		last = end
	}
	b.WriteString(working[last:])
	return b.String()
}
