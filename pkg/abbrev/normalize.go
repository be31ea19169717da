// CLAUDE:SUMMARY Accent folding (NFD, drop Mn, NFC) and the folded/original aligned view used for accent-insensitive matching.
package abbrev

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Chained transformers carry state, so each caller builds its own.
func newStripAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// FoldAccents removes diacritics (Élodie -> Elodie, Geschäftsführer -> Geschaftsfuhrer).
// The result is only ever a matching target, never output.
func FoldAccents(s string) string {
	result, _, err := transform.String(newStripAccents(), s)
	if err != nil {
		return s
	}
	return result
}

// Decompose returns the canonical decomposition (NFD) of s.
func Decompose(s string) string {
	return norm.NFD.String(s)
}

// foldedView pairs a string with its accent-folded form.
// offsets[i] is the byte offset in text of the canonical segment that
// produced folded[i]; offsets has len(folded)+1 entries.
type foldedView struct {
	text    string
	folded  string
	offsets []int
}

func newFoldedView(s string) *foldedView {
	t := newStripAccents()
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	var it norm.Iter
	it.InitString(norm.NFD, s)
	for !it.Done() {
		start := it.Pos()
		seg := it.Next()
		out, _, err := transform.Bytes(t, seg)
		if err != nil {
			out = append([]byte(nil), seg...)
		}
		b.Write(out)
		for range out {
			offsets = append(offsets, start)
		}
	}
	offsets = append(offsets, len(s))

	return &foldedView{text: s, folded: b.String(), offsets: offsets}
}

// start maps a folded byte offset to the start of its segment in text.
func (v *foldedView) start(i int) int {
	if i >= len(v.folded) {
		return len(v.text)
	}
	return v.offsets[i]
}

// end maps an exclusive folded end offset to an exclusive offset in text.
// An end falling inside a segment's folded output extends to the end of
// that segment so combining marks stay with their base.
func (v *foldedView) end(i int) int {
	if i >= len(v.folded) {
		return len(v.text)
	}
	if i > 0 && v.offsets[i] == v.offsets[i-1] {
		seg := v.offsets[i]
		for i < len(v.folded) && v.offsets[i] == seg {
			i++
		}
		return v.start(i)
	}
	return v.offsets[i]
}

// mapSubmatches converts a submatch index slice found on folded into
// offsets on text. Unmatched groups (-1) are kept as is.
func (v *foldedView) mapSubmatches(m []int) []int {
	out := make([]int, len(m))
	for i := 0; i+1 < len(m); i += 2 {
		if m[i] < 0 {
			out[i], out[i+1] = -1, -1
			continue
		}
		out[i] = v.start(m[i])
		out[i+1] = v.end(m[i+1])
		if out[i+1] < out[i] {
			out[i+1] = out[i]
		}
	}
	return out
}
