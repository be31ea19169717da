package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/hazyhaar/touchstone-abbrev/pkg/api"
	"github.com/hazyhaar/touchstone-abbrev/pkg/importer"
	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "title":
		cmdTitle(os.Args[2:])
	case "company":
		cmdCompany(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "compile":
		cmdCompile(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: touchstone-abbrev <command>

Commands:
  serve     Start the HTTP + MCP server
  mcp       Serve MCP over stdio
  title     Abbreviate a job title
  company   Abbreviate a company name
  import    Build rule packs from public code lists
  compile   Compile a rules dir into %s
`, rules.BundleFile)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (default ./config.yaml if present)")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)

	reg := abbrev.NewRegistry(cfg.RulesDir)
	if err := reg.Load(); err != nil {
		logger.Error("failed to load rules", "dir", cfg.RulesDir, "error", err)
		os.Exit(1)
	}
	logger.Info("rules loaded", "locales", reg.LocaleCount(), "packs", reg.PackCount())

	mcpSrv := api.NewMCPServer(reg, version, logger)
	router := api.NewRouter(reg, logger, server.NewStreamableHTTPServer(mcpSrv))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGHUP: hot reload rules.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("touchstone-abbrev listening", "addr", cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return reloadOnSIGHUP(gctx, reg, logger)
	})

	if cfg.Watch {
		g.Go(func() error {
			return rules.Watch(gctx, cfg.RulesDir, 250*time.Millisecond, logger, func() {
				reload(reg, logger, "rules dir changed")
			})
		})
	}

	if cfg.SourcesDB != "" && cfg.CheckInterval > 0 {
		sdb, err := importer.OpenSourceDB(cfg.SourcesDB)
		if err != nil {
			logger.Error("open sources db", "path", cfg.SourcesDB, "error", err)
			os.Exit(1)
		}
		defer sdb.Close()
		if err := sdb.Seed(importer.All()); err != nil {
			logger.Error("seed sources db", "error", err)
			os.Exit(1)
		}
		checker := importer.NewChecker(sdb, logger, cfg.CheckInterval)
		g.Go(func() error { return checker.Start(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func reloadOnSIGHUP(ctx context.Context, reg *abbrev.Registry, logger *slog.Logger) error {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sighup:
			reload(reg, logger, "SIGHUP received")
		}
	}
}

func reload(reg *abbrev.Registry, logger *slog.Logger, reason string) {
	logger.Info(reason+", reloading rules", "dir", reg.RulesDir())
	if err := reg.Reload(); err != nil {
		logger.Error("reload failed, keeping previous rules", "error", err)
		return
	}
	logger.Info("rules reloaded", "locales", reg.LocaleCount(), "packs", reg.PackCount())
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (default ./config.yaml if present)")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)

	reg := abbrev.NewRegistry(cfg.RulesDir)
	if err := reg.Load(); err != nil {
		logger.Error("failed to load rules", "dir", cfg.RulesDir, "error", err)
		os.Exit(1)
	}

	if err := server.ServeStdio(api.NewMCPServer(reg, version, logger)); err != nil {
		logger.Error("mcp stdio", "error", err)
		os.Exit(1)
	}
}
