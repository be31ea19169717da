// Package abbrev shortens job titles and legal company names with
// locale-specific rule tables.
//
// An Abbreviator is compiled once from a rules.Store and is immutable
// afterwards: it can be shared by any number of goroutines without locking.
package abbrev

import (
	"fmt"
	"sync"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"golang.org/x/text/language"
)

// Abbreviator applies the title and company rules of one rules.Store.
type Abbreviator struct {
	store   *rules.Store
	title   map[string]*titleRuleSet
	company map[string]*companyTables
}

// New compiles every table of store. It fails on invalid patterns or rules.
func New(store *rules.Store) (*Abbreviator, error) {
	a := &Abbreviator{
		store:   store,
		title:   make(map[string]*titleRuleSet),
		company: make(map[string]*companyTables),
	}
	for _, locale := range store.TitleLocales() {
		_, tr := store.Title(locale)
		set, err := compileTitleRules(locale, tr)
		if err != nil {
			return nil, fmt.Errorf("compile title rules: %w", err)
		}
		a.title[locale] = set
	}
	for _, locale := range store.CompanyLocales() {
		_, cr := store.Company(locale)
		a.company[locale] = compileCompanyRules(locale, cr)
	}
	return a, nil
}

var defaultAbbreviator = sync.OnceValues(func() (*Abbreviator, error) {
	return New(rules.Default())
})

// Default returns the Abbreviator over the embedded rule packs.
func Default() *Abbreviator {
	a, err := defaultAbbreviator()
	if err != nil {
		panic(fmt.Sprintf("abbrev: embedded defaults: %v", err))
	}
	return a
}

// Store returns the rule tables a was compiled from.
func (a *Abbreviator) Store() *rules.Store {
	return a.store
}

// AbbreviateTitle shortens a job title. Unknown locales use the English rules.
func (a *Abbreviator) AbbreviateTitle(title, locale string) string {
	return a.titleRules(locale).apply(title)
}

// ResolveTitleLocale returns the locale whose title rules apply to locale.
func (a *Abbreviator) ResolveTitleLocale(locale string) string {
	return a.titleRules(locale).locale
}

func (a *Abbreviator) titleRules(locale string) *titleRuleSet {
	resolved, _ := a.store.Title(locale)
	if set, ok := a.title[resolved]; ok {
		return set
	}
	return &titleRuleSet{locale: resolved, tag: language.Make(resolved)}
}

// AbbreviateCompanyName shortens a legal company name and appends an
// existing or synthesized acronym. Unknown locales use empty suffix and
// noise tables; acronym synthesis still applies.
func (a *Abbreviator) AbbreviateCompanyName(name, locale string, proposeAcronym bool) string {
	return a.ExplainCompanyName(name, locale, proposeAcronym).Output
}

// ExplainCompanyName runs the company pipeline and reports every stage.
func (a *Abbreviator) ExplainCompanyName(name, locale string, proposeAcronym bool) CompanyTrace {
	return a.companyTables(locale).run(name, proposeAcronym)
}

func (a *Abbreviator) companyTables(locale string) *companyTables {
	resolved, _ := a.store.Company(locale)
	if t, ok := a.company[resolved]; ok {
		return t
	}
	return &companyTables{tag: language.Make(locale)}
}
