package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is the title-domain fallback for unknown locales.
const DefaultLocale = "en"

// Store is an immutable set of rule tables keyed by locale.
// A Store is never modified after NewStore returns; reloading builds a new one.
type Store struct {
	title     map[string]*TitleRules
	company   map[string]*CompanyRules
	packs     map[string][]string
	manifests []*Manifest
}

// NewStore merges manifests in order into a new Store.
//
// Packs for the same locale are merged: title tiers are appended, legal
// suffixes appended without duplicates, noise words unioned. A pack with
// Replace set discards what earlier packs defined for its locale.
func NewStore(manifests []*Manifest) (*Store, error) {
	s := &Store{
		title:   make(map[string]*TitleRules),
		company: make(map[string]*CompanyRules),
		packs:   make(map[string][]string),
	}
	for i, m := range manifests {
		if m == nil {
			continue
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("manifest %d: %w", i, err)
		}
		key := m.Locale
		if m.Replace {
			delete(s.title, key)
			delete(s.company, key)
			s.packs[key] = nil
		}
		if m.Title != nil {
			s.title[key] = mergeTitle(s.title[key], m.Title)
		}
		if m.Company != nil {
			s.company[key] = mergeCompany(s.company[key], m.Company)
		}
		s.packs[key] = append(s.packs[key], m.ID)
		s.manifests = append(s.manifests, m)
	}
	return s, nil
}

func mergeTitle(dst, src *TitleRules) *TitleRules {
	if dst == nil {
		dst = &TitleRules{}
	}
	return &TitleRules{
		Strong: append(slices.Clone(dst.Strong), src.Strong...),
		Medium: append(slices.Clone(dst.Medium), src.Medium...),
		Weak:   append(slices.Clone(dst.Weak), src.Weak...),
	}
}

func mergeCompany(dst, src *CompanyRules) *CompanyRules {
	if dst == nil {
		dst = &CompanyRules{}
	}
	out := &CompanyRules{
		LegalSuffixes: slices.Clone(dst.LegalSuffixes),
		NoiseWords:    slices.Clone(dst.NoiseWords),
	}
	for _, sfx := range src.LegalSuffixes {
		if !containsFold(out.LegalSuffixes, sfx) {
			out.LegalSuffixes = append(out.LegalSuffixes, sfx)
		}
	}
	for _, w := range src.NoiseWords {
		if !containsFold(out.NoiseWords, w) {
			out.NoiseWords = append(out.NoiseWords, w)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// BaseLanguage returns the base language of a BCP 47 tag (fr-CA -> fr).
// Tags that do not parse, or carry no base language, are returned unchanged.
// Store lookups never call it: callers that want regional tags to share
// their language's tables convert the tag first.
func BaseLanguage(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	base, conf := tag.Base()
	if conf == language.No {
		return locale
	}
	return base.String()
}

// Title resolves the title rule set for locale, falling back to DefaultLocale.
// Locale is an opaque key: only an exact match selects a table, so "FR" and
// "fr-CA" use the fallback. It returns the locale actually used.
func (s *Store) Title(locale string) (string, *TitleRules) {
	if tr, ok := s.title[locale]; ok {
		return locale, tr
	}
	if tr, ok := s.title[DefaultLocale]; ok {
		return DefaultLocale, tr
	}
	return DefaultLocale, &TitleRules{}
}

// Company resolves the company tables for locale. Unknown locales get empty
// tables, not the default locale's. Matching is exact, as for Title.
func (s *Store) Company(locale string) (string, *CompanyRules) {
	if cr, ok := s.company[locale]; ok {
		return locale, cr
	}
	return "", &CompanyRules{}
}

// LocaleInfo is the public inventory of one locale.
type LocaleInfo struct {
	Locale        string   `json:"locale"`
	Packs         []string `json:"packs"`
	TitleRules    int      `json:"title_rules"`
	LegalSuffixes int      `json:"legal_suffixes"`
	NoiseWords    int      `json:"noise_words"`
}

// Locales returns the inventory of every locale, sorted by tag.
func (s *Store) Locales() []LocaleInfo {
	infos := make([]LocaleInfo, 0, len(s.packs))
	for key, packs := range s.packs {
		info := LocaleInfo{
			Locale: key,
			Packs:  slices.Clone(packs),
		}
		if tr := s.title[key]; tr != nil {
			info.TitleRules = tr.Len()
		}
		if cr := s.company[key]; cr != nil {
			info.LegalSuffixes = len(cr.LegalSuffixes)
			info.NoiseWords = len(cr.NoiseWords)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Locale < infos[j].Locale })
	return infos
}

// TitleLocales returns the locales that carry title rules, sorted.
func (s *Store) TitleLocales() []string {
	out := make([]string, 0, len(s.title))
	for key := range s.title {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// CompanyLocales returns the locales that carry company tables, sorted.
func (s *Store) CompanyLocales() []string {
	out := make([]string, 0, len(s.company))
	for key := range s.company {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Manifests returns the packs the store was built from, in merge order.
func (s *Store) Manifests() []*Manifest {
	return slices.Clone(s.manifests)
}
