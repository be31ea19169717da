package abbrev

import (
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// derive computes the replacement of a computed rule from the matched span
// of the original text. It returns span unchanged when the span does not
// fit the derivation's shape.
func derive(d rules.Derivation, span string, tag language.Tag) string {
	switch d {
	case rules.DerivationChiefOfficer:
		return deriveChiefOfficer(span, tag)
	}
	return span
}

// deriveChiefOfficer:
//
//	Chief Financial Officer        -> CFO
//	Chief Human Resources Officer  -> CHRO
//	Chief Counsel                  -> CCO
func deriveChiefOfficer(span string, tag language.Tag) string {
	words := strings.Fields(span)
	switch {
	case len(words) >= 3 && strings.EqualFold(words[0], "chief") && strings.EqualFold(words[len(words)-1], "officer"):
		var b strings.Builder
		b.WriteString("C")
		for _, w := range words[1 : len(words)-1] {
			b.WriteString(upperInitial(w, tag))
		}
		b.WriteString("O")
		return b.String()
	case len(words) == 2 && strings.EqualFold(words[0], "chief"):
		return "C" + upperInitial(words[1], tag) + "O"
	}
	return span
}

// upperInitial returns the upper-cased first rune of w.
func upperInitial(w string, tag language.Tag) string {
	r, size := utf8.DecodeRuneInString(w)
	if size == 0 {
		return ""
	}
	return cases.Upper(tag).String(string(r))
}
