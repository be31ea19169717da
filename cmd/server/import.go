// CLAUDE:SUMMARY CLI subcommand that downloads public code lists and writes rule packs via import adapters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-abbrev/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "adapter ID to import (e.g. gleif-elf)")
	all := fs.Bool("all", false, "import all available sources")
	outputDir := fs.String("output-dir", "rules", "rules dir receiving the packs")
	sourcesDB := fs.String("sources-db", "", "sources database (default <output-dir>/sources.db)")
	setURL := fs.String("set-url", "", "override the source URL of --source before importing")
	fs.Parse(args)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Open source DB and seed defaults.
	dbPath := *sourcesDB
	if dbPath == "" {
		dbPath = filepath.Join(*outputDir, "sources.db")
	}
	sdb, err := importer.OpenSourceDB(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer sdb.Close()

	if err := sdb.Seed(importer.All()); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding sources: %v\n", err)
		os.Exit(1)
	}

	if !*all && *source == "" {
		fmt.Println("Available sources:")
		fmt.Println()
		sources, _ := sdb.ListSources()
		for _, src := range sources {
			fmt.Printf("  %-12s  %s  (-> %s-*.yaml)\n", src.AdapterID, src.Description, src.PackPrefix)
			fmt.Printf("  %-12s  %s\n", "", src.URL)
			fmt.Printf("  %-12s  %s\n", "", sourceStatus(sdb, src))
		}
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  touchstone-abbrev import --source <id> [--output-dir <dir>] [--set-url <url>]")
		fmt.Println("  touchstone-abbrev import --all [--output-dir <dir>]")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *all {
		failed := false
		for _, a := range importer.All() {
			if err := runImport(ctx, sdb, a, *outputDir); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	a, err := importer.Get(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Println("\nAvailable sources:")
		for _, a := range importer.All() {
			fmt.Printf("  %s\n", a.ID())
		}
		os.Exit(1)
	}

	if *setURL != "" {
		if err := sdb.SetURL(a.ID(), *setURL); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] ERROR (URL): %v\n", a.ID(), err)
			os.Exit(1)
		}
	}

	if err := runImport(ctx, sdb, a, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	fmt.Printf("[%s] importing %s...\n", a.ID(), url)
	res, err := a.Import(ctx, url, outputDir)
	if err != nil {
		return err
	}
	if err := sdb.RecordImport(a.ID(), url, res); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	for _, p := range res.Packs {
		fmt.Printf("[%s] wrote %s (%s, %d entries)\n", a.ID(), p.Path, p.Locale, p.Entries)
	}
	fmt.Printf("[%s] OK: %d packs from code list %s\n", a.ID(), len(res.Packs), res.Version)
	return nil
}

// sourceStatus summarizes the last import and drift check of src.
func sourceStatus(sdb *importer.SourceDB, src importer.Source) string {
	if src.Imported == nil {
		return "never imported"
	}
	packs, _ := sdb.Packs(src.AdapterID)
	locales := make([]string, len(packs))
	for i, p := range packs {
		locales[i] = p.Locale
	}
	line := fmt.Sprintf("imported %s from %s, packs: %s",
		time.Unix(src.Imported.At, 0).UTC().Format(time.DateOnly),
		src.Imported.Version, strings.Join(locales, " "))
	if src.Checked != nil {
		line += fmt.Sprintf(" [%s]", src.Checked.State)
		if src.Checked.Detail != "" {
			line += " " + src.Checked.Detail
		}
	}
	return line
}
