// CLAUDE:SUMMARY Import adapter for the GLEIF ISO 20275 Entity Legal Forms code list, producing company legal-suffix packs per locale.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
)

func init() {
	Register(&gleifELFAdapter{})
}

// ELF code list columns.
const (
	elfColLanguage      = "Language Code (ISO 639-1)"
	elfColAbbreviations = "Abbreviations Local language"
	elfColStatus        = "ELF Status ACTV/INAC"
)

// elfLocales are the locales an ELF pack is written for.
var elfLocales = map[string]bool{
	"en": true, "fr": true, "es": true, "it": true, "pt": true, "de": true,
	"ru": true, "zh": true, "ja": true, "ko": true, "he": true, "ar": true,
}

type gleifELFAdapter struct {
	// charset of the CSV; empty means UTF-8.
	charset string
}

func (a *gleifELFAdapter) ID() string     { return "gleif-elf" }
func (a *gleifELFAdapter) PackID() string { return "elf" }
func (a *gleifELFAdapter) Description() string {
	return "GLEIF ISO 20275 Entity Legal Forms code list (local abbreviations)"
}
func (a *gleifELFAdapter) DefaultURL() string {
	return "https://www.gleif.org/fileadmin/user_upload/data/ISO_20275/ISO-20275_2023-09-21.csv"
}
func (a *gleifELFAdapter) License() string { return "CC0" }

func (a *gleifELFAdapter) Import(ctx context.Context, sourceURL, outputDir string) (*Result, error) {
	dlDir := filepath.Join(outputDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return nil, err
	}
	defer os.RemoveAll(dlDir)

	dlPath := filepath.Join(dlDir, "elf.download")
	fetched, err := downloadFile(ctx, sourceURL, dlPath)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	csvPath := dlPath
	zipped, err := isZip(dlPath)
	if err != nil {
		return nil, err
	}
	if zipped {
		files, err := unzipFile(dlPath, dlDir)
		if err != nil {
			return nil, fmt.Errorf("unzip: %w", err)
		}
		if csvPath = findFile(files, ".csv"); csvPath == "" {
			return nil, fmt.Errorf("no CSV found in ZIP")
		}
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decodeReader(f, a.charset)
	if err != nil {
		return nil, err
	}
	byLocale, err := parseELF(r)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	version := elfVersion(sourceURL, fetched.SHA256)
	packs, err := writeELFPacks(outputDir, a.PackID(), sourceURL, a.License(), version, byLocale)
	if err != nil {
		return nil, err
	}
	return &Result{Version: version, Fetched: fetched, Packs: packs}, nil
}

// elfReleaseDate matches the release date GLEIF puts in code-list file names
// (ISO-20275_2023-09-21.csv).
var elfReleaseDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// elfVersion names the code-list release: the date in the file name when
// there is one, else a prefix of the content digest.
func elfVersion(sourceURL, sha string) string {
	name := sourceURL
	if u, err := url.Parse(sourceURL); err == nil {
		name = path.Base(u.Path)
	}
	if d := elfReleaseDate.FindString(name); d != "" {
		return d
	}
	if len(sha) > 12 {
		sha = sha[:12]
	}
	return "sha256:" + sha
}

// parseELF reads the ELF CSV and returns the active local abbreviations of
// every recognized locale, deduplicated and sorted longest first.
func parseELF(r io.Reader) (map[string][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		col[strings.TrimSpace(h)] = i
	}
	langIdx, ok := col[elfColLanguage]
	if !ok {
		return nil, fmt.Errorf("missing column %q", elfColLanguage)
	}
	abbrIdx, ok := col[elfColAbbreviations]
	if !ok {
		return nil, fmt.Errorf("missing column %q", elfColAbbreviations)
	}
	statusIdx, hasStatus := col[elfColStatus]

	seen := make(map[string]map[string]bool)
	out := make(map[string][]string)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if langIdx >= len(rec) || abbrIdx >= len(rec) {
			continue
		}
		if hasStatus && statusIdx < len(rec) && strings.EqualFold(strings.TrimSpace(rec[statusIdx]), "INAC") {
			continue
		}
		lang := strings.ToLower(strings.TrimSpace(rec[langIdx]))
		if !elfLocales[lang] {
			continue
		}
		for _, abbr := range strings.Split(rec[abbrIdx], ";") {
			abbr = strings.TrimSpace(abbr)
			if abbr == "" {
				continue
			}
			key := strings.ToLower(abbr)
			if seen[lang] == nil {
				seen[lang] = make(map[string]bool)
			}
			if seen[lang][key] {
				continue
			}
			seen[lang][key] = true
			out[lang] = append(out[lang], abbr)
		}
	}

	for _, list := range out {
		sortLongestFirst(list)
	}
	return out, nil
}

// sortLongestFirst orders suffixes so that "S.A.R.L." is tried before "S.A.".
func sortLongestFirst(list []string) {
	sort.SliceStable(list, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(list[i]), utf8.RuneCountInString(list[j])
		if li != lj {
			return li > lj
		}
		return list[i] < list[j]
	})
}

func writeELFPacks(outputDir, packID, sourceURL, license, version string, byLocale map[string][]string) ([]Pack, error) {
	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}
	locales := make([]string, 0, len(byLocale))
	for lang := range byLocale {
		locales = append(locales, lang)
	}
	sort.Strings(locales)

	var packs []Pack
	for _, lang := range locales {
		pack, err := writeManifest(outputDir, &rules.Manifest{
			ID:      packID + "-" + lang,
			Version: version,
			Locale:  lang,
			Source:  "GLEIF ISO 20275 ELF code list " + sourceURL,
			License: license,
			Company: &rules.CompanyRules{LegalSuffixes: byLocale[lang]},
		})
		if err != nil {
			return packs, err
		}
		packs = append(packs, pack)
	}
	return packs, nil
}
