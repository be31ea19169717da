// CLAUDE:SUMMARY Company name pipeline: acronym extraction, NFD, punctuation cleanup, legal suffix and noise removal, acronym synthesis.
package abbrev

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// minAcronymWords is the token count from which an acronym is synthesized.
const minAcronymWords = 3

var (
	trailingAcronym = regexp.MustCompile(`\s*\((\p{Lu}{2,6})\)\s*$`)
	nonWordRun      = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\p{Zs}_\s&-]+`)
	spaceRun        = regexp.MustCompile(`[\s\p{Zs}]+`)
	tokenSep        = regexp.MustCompile(`[ &-]+`)
)

// ExtractedAcronym is a company name split into its core text and a
// pre-existing trailing parenthetical acronym.
type ExtractedAcronym struct {
	Residual string `json:"residual"`
	Acronym  string `json:"acronym,omitempty"`
}

// ExtractAcronym strips a trailing "(ABC)" when ABC is 2-6 upper-case
// letters starting with the name's initial. Anything else is left in place.
func ExtractAcronym(name string) ExtractedAcronym {
	m := trailingAcronym.FindStringSubmatchIndex(name)
	if m == nil {
		return ExtractedAcronym{Residual: strings.TrimSpace(name)}
	}
	residual := strings.TrimSpace(name[:m[0]])
	acronym := name[m[2]:m[3]]
	initial := firstLetter(residual)
	if initial == "" {
		return ExtractedAcronym{Residual: strings.TrimSpace(name)}
	}
	if strings.ToUpper(FoldAccents(initial)) != FoldAccents(firstRune(acronym)) {
		return ExtractedAcronym{Residual: strings.TrimSpace(name)}
	}
	return ExtractedAcronym{Residual: residual, Acronym: acronym}
}

func firstLetter(s string) string {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return string(r)
		}
	}
	return ""
}

func firstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// normalizePunctuation keeps letters, marks, digits, whitespace, & and -;
// every other run becomes one space. Underscores become spaces.
func normalizePunctuation(s string) string {
	s = nonWordRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeTableEntry prepares a suffix or noise word for comparison with
// names that went through decomposition and punctuation cleanup.
func normalizeTableEntry(s string) string {
	return strings.ToLower(normalizePunctuation(Decompose(s)))
}

// companyTables are the compiled company rules of one locale.
type companyTables struct {
	locale   string
	tag      language.Tag
	suffixes []string
	noise    map[string]struct{}
}

func compileCompanyRules(locale string, cr *rules.CompanyRules) *companyTables {
	t := &companyTables{
		locale: locale,
		tag:    language.Make(locale),
		noise:  make(map[string]struct{}, len(cr.NoiseWords)),
	}
	for _, sfx := range cr.LegalSuffixes {
		if n := normalizeTableEntry(sfx); n != "" {
			t.suffixes = append(t.suffixes, n)
		}
	}
	for _, w := range cr.NoiseWords {
		if n := normalizeTableEntry(w); n != "" {
			t.noise[n] = struct{}{}
		}
	}
	return t
}

// CompanyTrace records what each pipeline stage did to a name.
type CompanyTrace struct {
	Input         string   `json:"input"`
	Locale        string   `json:"locale,omitempty"`
	Residual      string   `json:"residual"`
	Acronym       string   `json:"acronym,omitempty"`
	AcronymSource string   `json:"acronym_source,omitempty"`
	RemovedSuffix string   `json:"removed_suffix,omitempty"`
	RemovedNoise  []string `json:"removed_noise,omitempty"`
	Output        string   `json:"output"`
}

const (
	AcronymExtracted   = "extracted"
	AcronymSynthesized = "synthesized"
)

func (t *companyTables) run(name string, proposeAcronym bool) CompanyTrace {
	tr := CompanyTrace{Input: name, Locale: t.locale}
	if name == "" {
		return tr
	}

	ext := ExtractAcronym(name)
	if ext.Acronym != "" {
		tr.Acronym = ext.Acronym
		tr.AcronymSource = AcronymExtracted
	}

	s := Decompose(ext.Residual)
	s = normalizePunctuation(s)
	s, tr.RemovedSuffix = t.trimLegalSuffix(s)
	s, tr.RemovedNoise = t.dropNoise(s)

	if tr.Acronym == "" && proposeAcronym {
		if a := proposeAcronymFor(s, t.tag); a != "" {
			tr.Acronym = a
			tr.AcronymSource = AcronymSynthesized
		}
	}

	s = strings.ReplaceAll(s, "&", "")
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	tr.Residual = s
	tr.Output = s
	if tr.Acronym != "" {
		tr.Output = s + " (" + tr.Acronym + ")"
	}
	return tr
}

// trimLegalSuffix removes the first suffix, in table order, that ends the
// name as a whole word. At most one suffix is removed.
func (t *companyTables) trimLegalSuffix(name string) (string, string) {
	rs := []rune(name)
	for _, sfx := range t.suffixes {
		n := len(rs) - utf8.RuneCountInString(sfx)
		if n < 0 {
			continue
		}
		tail := string(rs[n:])
		if !strings.EqualFold(tail, sfx) {
			continue
		}
		if n > 0 && isWordRune(rs[n-1]) && !isUnspacedScript(rs[n]) {
			continue
		}
		return strings.TrimSpace(string(rs[:n])), tail
	}
	return name, ""
}

// isUnspacedScript reports whether r belongs to a script written without
// spaces between words, where a suffix is its own word wherever it starts.
func isUnspacedScript(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}

// dropNoise splits on spaces, hyphens and ampersands, removes noise words
// and joins the rest with single spaces.
func (t *companyTables) dropNoise(name string) (string, []string) {
	var kept, removed []string
	for _, w := range tokenSep.Split(name, -1) {
		if w == "" {
			continue
		}
		if _, ok := t.noise[strings.ToLower(w)]; ok {
			removed = append(removed, w)
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " "), removed
}

// proposeAcronymFor builds an acronym from the initials of name's tokens.
// It declines for fewer than minAcronymWords tokens or when a token is
// already an acronym.
func proposeAcronymFor(name string, tag language.Tag) string {
	words := tokenSep.Split(name, -1)
	if len(words) < minAcronymWords {
		return ""
	}
	for _, w := range words {
		if isAcronymToken(w) {
			return ""
		}
	}
	var b strings.Builder
	for _, w := range words {
		if w == "&" || w == "" {
			continue
		}
		b.WriteString(upperInitial(w, tag))
	}
	return norm.NFC.String(b.String())
}

// isAcronymToken reports whether w is two or more upper-case letters,
// combining marks aside.
func isAcronymToken(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsMark(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}
