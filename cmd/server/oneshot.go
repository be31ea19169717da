// CLAUDE:SUMMARY CLI one-shots: abbreviate a title or company name from the command line, and compile a rules dir into a gob bundle.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
)

func cmdTitle(args []string) {
	fs := flag.NewFlagSet("title", flag.ExitOnError)
	locale := fs.String("locale", rules.DefaultLocale, "locale tag")
	rulesDir := fs.String("rules-dir", "", "rules dir overlaying the embedded packs")
	fs.Parse(args)

	a, err := loadAbbreviator(*rulesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	runTitle(os.Stdout, a, *locale, fs.Args())
}

func runTitle(w io.Writer, a *abbrev.Abbreviator, locale string, args []string) {
	for _, text := range inputs(args) {
		fmt.Fprintln(w, a.AbbreviateTitle(text, locale))
	}
}

func cmdCompany(args []string) {
	fs := flag.NewFlagSet("company", flag.ExitOnError)
	locale := fs.String("locale", rules.DefaultLocale, "locale tag")
	rulesDir := fs.String("rules-dir", "", "rules dir overlaying the embedded packs")
	noAcronym := fs.Bool("no-acronym", false, "do not synthesize acronyms")
	verbose := fs.Bool("verbose", false, "print the per-stage trace as JSON")
	fs.Parse(args)

	a, err := loadAbbreviator(*rulesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := runCompany(os.Stdout, a, *locale, !*noAcronym, *verbose, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCompany(w io.Writer, a *abbrev.Abbreviator, locale string, propose, verbose bool, args []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, name := range inputs(args) {
		if !verbose {
			fmt.Fprintln(w, a.AbbreviateCompanyName(name, locale, propose))
			continue
		}
		if err := enc.Encode(a.ExplainCompanyName(name, locale, propose)); err != nil {
			return err
		}
	}
	return nil
}

// inputs joins the positional arguments into one input, or reads one input
// per line from stdin when there are none.
func inputs(args []string) []string {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func loadAbbreviator(rulesDir string) (*abbrev.Abbreviator, error) {
	if rulesDir == "" {
		return abbrev.Default(), nil
	}
	store, err := rules.LoadDir(rulesDir)
	if err != nil {
		return nil, err
	}
	return abbrev.New(store)
}

func cmdCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	rulesDir := fs.String("rules-dir", "rules", "directory of YAML rule packs")
	out := fs.String("out", "", "bundle path (default <rules-dir>/"+rules.BundleFile+")")
	fs.Parse(args)

	path := *out
	if path == "" {
		path = filepath.Join(*rulesDir, rules.BundleFile)
	}
	n, err := compileBundle(*rulesDir, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d packs -> %s\n", n, path)
}

// compileBundle checks that the YAML packs of dir compile on top of the
// embedded defaults, then writes them to a gob bundle at path.
func compileBundle(dir, path string) (int, error) {
	manifests, err := rules.DirManifests(dir)
	if err != nil {
		return 0, err
	}
	defaults, err := rules.DefaultManifests()
	if err != nil {
		return 0, err
	}
	store, err := rules.NewStore(append(defaults, manifests...))
	if err != nil {
		return 0, err
	}
	if _, err := abbrev.New(store); err != nil {
		return 0, err
	}
	if err := rules.SaveGob(manifests, path); err != nil {
		return 0, err
	}
	return len(manifests), nil
}
