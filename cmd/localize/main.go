package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goliatone/go-localize"
	"github.com/goliatone/go-localize/internal/translate"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

var newModule = localize.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config      string
	pages       []string
	locales     []string
	dryRun      bool
	allowErrors bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	name := args[0]
	switch name {
	case "extract", "stale", "build", "verify", "all":
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "localize: unknown command %q\n", name)
		usage(stderr)
		return exitUsage
	}

	opts, err := parseFlags(name, args[1:], stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := localize.LoadConfig(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "localize: %v\n", err)
		return exitFailed
	}
	module, err := newModule(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "localize: %v\n", err)
		return exitFailed
	}

	if err := dispatch(ctx, module, name, opts, stdout); err != nil {
		fmt.Fprintf(stderr, "localize %s: %v\n", name, err)
		return exitFailed
	}
	return exitOK
}

func parseFlags(name string, args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("localize "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	config := fs.String("config", "localize.toml", "Path to the site configuration file")
	pages := fs.String("pages", "", "Comma separated page keys (defaults to every page)")
	locales := fs.String("locales", "", "Comma separated locale codes (defaults to every locale)")
	dryRun := fs.Bool("dry-run", false, "Report without writing files")
	allowErrors := fs.Bool("allow-errors", false, "Exit zero even when verification reports errors")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return options{
		config:      *config,
		pages:       splitList(*pages),
		locales:     splitList(*locales),
		dryRun:      *dryRun,
		allowErrors: *allowErrors,
	}, nil
}

func dispatch(ctx context.Context, module *localize.Module, name string, opts options, out io.Writer) error {
	switch name {
	case "extract":
		return runExtract(ctx, module, opts, out)
	case "stale":
		return runStale(ctx, module, opts, out)
	case "build":
		_, err := runBuild(ctx, module, opts, out)
		return err
	case "verify":
		return runVerify(ctx, module, opts, nil, out)
	default:
		if err := runExtract(ctx, module, opts, out); err != nil {
			return err
		}
		result, err := runBuild(ctx, module, opts, out)
		if err != nil {
			return err
		}
		if opts.dryRun {
			return nil
		}
		return runVerify(ctx, module, opts, result.Unresolved, out)
	}
}

func runExtract(ctx context.Context, module *localize.Module, opts options, out io.Writer) error {
	report, err := module.Extract(ctx, localize.ExtractOptions{Pages: opts.pages, DryRun: opts.dryRun})
	if report != nil {
		changed := 0
		for _, page := range report.Pages {
			if page.Changed {
				changed++
			}
		}
		fmt.Fprintf(out, "extract: %d page(s), %d changed, %d diagnostic(s)\n", len(report.Pages), changed, len(report.Diagnostics))
		for _, pageErr := range report.Errors {
			fmt.Fprintf(out, "  error: %v\n", pageErr)
		}
	}
	return err
}

func runStale(ctx context.Context, module *localize.Module, opts options, out io.Writer) error {
	report, err := module.Stale(ctx, opts.locales...)
	if err != nil {
		return err
	}
	if len(report.Outcomes) == 0 {
		fmt.Fprintln(out, "stale: every locale is up to date")
		return nil
	}
	for _, outcome := range report.Outcomes {
		switch outcome.Status {
		case translate.StatusPlanned:
			fmt.Fprintf(out, "stale: %s/%s has %d of %d key(s)\n", outcome.Locale, outcome.Scope, outcome.Previous, outcome.Keys)
		case translate.StatusFailed:
			fmt.Fprintf(out, "stale: %s skipped: %v\n", outcome.Locale, outcome.Err)
		}
	}
	return nil
}

func runBuild(ctx context.Context, module *localize.Module, opts options, out io.Writer) (*localize.BuildResult, error) {
	result, err := module.Build(ctx, localize.BuildOptions{
		Pages:   opts.pages,
		Locales: opts.locales,
		DryRun:  opts.dryRun,
	})
	if result != nil {
		fmt.Fprintf(out, "build: %d page(s), %d changed, %d unresolved (%d fatal), %d sitemap entries\n",
			result.PagesBuilt, result.PagesChanged, len(result.Unresolved), len(result.Fatal()), result.SitemapEntries)
		for _, buildErr := range result.Errors {
			fmt.Fprintf(out, "  error: %v\n", buildErr)
		}
	}
	return result, err
}

func runVerify(ctx context.Context, module *localize.Module, opts options, unresolved []localize.Unresolved, out io.Writer) error {
	report, err := module.Verify(ctx, localize.VerifyOptions{
		Unresolved:  unresolved,
		AllowErrors: opts.allowErrors,
	})
	if report != nil {
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "  %s\n", issue)
		}
		fmt.Fprintf(out, "verify: %d file(s), %d error(s), %d warning(s)\n", report.Files, len(report.Errors()), len(report.Warnings()))
	}
	return err
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: localize <command> [flags]

commands:
  extract   extract registered pages into templates and the source dictionary
  stale     list locale scopes that need translating
  build     render every page for every locale
  verify    check the rendered tree
  all       extract, build and verify

flags:
  -config path     site configuration (default localize.toml)
  -pages list      comma separated page keys
  -locales list    comma separated locale codes
  -dry-run         report without writing files
  -allow-errors    exit zero when verification reports errors`)
}
