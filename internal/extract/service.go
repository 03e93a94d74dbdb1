package extract

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/site"
	localstorage "github.com/goliatone/go-localize/internal/storage"
	"github.com/goliatone/go-localize/pkg/interfaces"
	"github.com/goliatone/go-localize/pkg/storage"
)

// ErrPageSourceMissing is recorded when a registered page has no source file.
var ErrPageSourceMissing = errors.New("extract: page source missing")

// Config locates page sources and templates relative to the storage root.
type Config struct {
	PagesDir     string
	TemplatesDir string
}

// RunOptions narrows an extraction run.
type RunOptions struct {
	Pages  []string
	DryRun bool
}

// PageReport summarises one extracted page.
type PageReport struct {
	Page       string
	Template   string
	PageKeys   int
	SharedKeys int
	Changed    bool
}

// Report is the outcome of an extraction run. Errors holds per-page failures
// that did not stop the run.
type Report struct {
	Pages       []PageReport
	Diagnostics []Diagnostic
	Dictionary  dictionary.Dictionary
	Errors      []error
	Duration    time.Duration
	DryRun      bool
}

// Service extracts every registered page and maintains the source dictionary.
type Service struct {
	cfg       Config
	registry  site.Registry
	extractor *Extractor
	storage   storage.Provider
	store     *dictionary.FileStore
	logger    interfaces.Logger
	now       func() time.Time
}

// NewService wires the extraction service.
func NewService(cfg Config, registry site.Registry, extractor *Extractor, provider storage.Provider, store *dictionary.FileStore, logger interfaces.Logger) *Service {
	return &Service{
		cfg:       cfg,
		registry:  registry,
		extractor: extractor,
		storage:   provider,
		store:     store,
		logger:    logging.OrNoOp(logger),
		now:       time.Now,
	}
}

// Run extracts pages in registry order. Page values overwrite earlier runs;
// shared values keep the first page's text within a run and report the
// others. Keys are never removed from the source dictionary.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	start := s.now()
	pages, err := s.registry.FilterPages(opts.Pages)
	if err != nil {
		return nil, err
	}

	source, err := s.store.Load(ctx, s.registry.SourceLocale)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: opts.DryRun}
	shared := dictionary.New()
	pageEntries := dictionary.New()

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger := logging.WithPageContext(s.logger, page.Key, s.registry.SourceLocale, "")

		raw, ok, err := localstorage.ReadFile(ctx, s.storage, path.Join(s.cfg.PagesDir, page.Source))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("extract: read %s: %w", page.Key, err))
			logger.Error("extract.page.read_failed", "error", err)
			continue
		}
		if !ok {
			report.Errors = append(report.Errors, fmt.Errorf("%w: %s (%s)", ErrPageSourceMissing, page.Key, page.Source))
			logger.Warn("extract.page.missing", "source", page.Source)
			continue
		}

		result := s.extractor.Extract(page, string(raw))
		report.Diagnostics = append(report.Diagnostics, result.Diagnostics...)

		for _, conflict := range shared.Merge(dictionary.Dictionary{site.SharedScope: result.Entries.Scope(site.SharedScope)}) {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Page:    page.Key,
				Pass:    "merge",
				Message: fmt.Sprintf("shared key %q already holds %q; ignoring %q", conflict.Key, conflict.Existing, conflict.Incoming),
			})
		}
		if entries := result.Entries.Scope(page.Key); entries != nil {
			pageEntries.ReplaceScope(page.Key, entries)
		}

		templatePath := path.Join(s.cfg.TemplatesDir, page.Template)
		changed := true
		if existing, ok, err := localstorage.ReadFile(ctx, s.storage, templatePath); err == nil && ok {
			changed = string(existing) != result.Template
		}
		if !opts.DryRun && changed {
			if err := localstorage.WriteFile(ctx, s.storage, templatePath, []byte(result.Template)); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("extract: write template %s: %w", page.Key, err))
				logger.Error("extract.template.write_failed", "error", err)
				continue
			}
		}

		report.Pages = append(report.Pages, PageReport{
			Page:       page.Key,
			Template:   templatePath,
			PageKeys:   result.Entries.KeyCount(page.Key),
			SharedKeys: result.Entries.KeyCount(site.SharedScope),
			Changed:    changed,
		})
		logger.Debug("extract.page.done",
			"page_keys", result.Entries.KeyCount(page.Key),
			"shared_keys", result.Entries.KeyCount(site.SharedScope),
			"diagnostics", len(result.Diagnostics),
		)
	}

	source.Overwrite(pageEntries)
	source.Overwrite(shared)
	report.Dictionary = source

	if !opts.DryRun {
		if err := s.store.Save(ctx, s.registry.SourceLocale, source); err != nil {
			return report, err
		}
	}

	report.Duration = s.now().Sub(start)
	s.logger.Info("extract.run.done",
		"pages", len(report.Pages),
		"keys", source.Len(),
		"diagnostics", len(report.Diagnostics),
		"errors", len(report.Errors),
		"dry_run", opts.DryRun,
	)
	return report, nil
}
