package render

import (
	"context"
	"errors"
	"fmt"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/identity"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/site"
	localstorage "github.com/goliatone/go-localize/internal/storage"
	"github.com/goliatone/go-localize/pkg/interfaces"
	"github.com/goliatone/go-localize/pkg/storage"
)

var (
	// ErrTemplateMissing is recorded when a page in scope has no template.
	ErrTemplateMissing = errors.New("render: template missing")
	// ErrStoreRequired is returned when the build has no dictionary source.
	ErrStoreRequired = errors.New("render: dictionary store is required")
)

// Config captures build behaviour toggles. Paths are relative to the
// storage root.
type Config struct {
	TemplatesDir     string
	OutputDir        string
	// Workers below zero use one worker per CPU; zero renders sequentially.
	Workers          int
	GenerateSitemap  bool
	GenerateRobots   bool
	GenerateManifest bool
}

// StoreLoader produces the dictionary snapshot a build renders from.
type StoreLoader interface {
	LoadStore(ctx context.Context, codes []string) (*dictionary.Store, error)
}

// BuildOptions narrows the scope of a build. The sitemap always covers the
// full registry.
type BuildOptions struct {
	Locales []string
	Pages   []string
	DryRun  bool
}

// RenderedPage describes one (page, locale) output.
type RenderedPage struct {
	Page       string
	Locale     string
	Template   string
	Output     string
	Checksum   string
	Size       int64
	Unresolved int
	Changed    bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	RunID          uuid.UUID
	GeneratedAt    time.Time
	PagesBuilt     int
	PagesChanged   int
	Locales        []string
	SitemapEntries int
	Duration       time.Duration
	Rendered       []RenderedPage
	Unresolved     []Unresolved
	Errors         []error
	DryRun         bool
}

// Fatal returns the unresolved placeholders that point at template and
// dictionary drift.
func (r *BuildResult) Fatal() []Unresolved {
	var out []Unresolved
	for _, miss := range r.Unresolved {
		if miss.Fatal() {
			out = append(out, miss)
		}
	}
	return out
}

// Service renders the registry into the output tree.
type Service struct {
	cfg      Config
	registry site.Registry
	engine   *Engine
	stores   StoreLoader
	storage  storage.Provider
	logger   interfaces.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewService wires a build service.
func NewService(cfg Config, registry site.Registry, stores StoreLoader, provider storage.Provider, logger interfaces.Logger) *Service {
	return &Service{
		cfg:      cfg,
		registry: registry,
		engine:   NewEngine(registry),
		stores:   stores,
		storage:  provider,
		logger:   logging.OrNoOp(logger),
		now:      time.Now,
		newID:    uuid.New,
	}
}

type renderJob struct {
	page     site.Page
	locale   site.Locale
	template string
	source   string
}

type renderOutcome struct {
	job        renderJob
	text       string
	unresolved []Unresolved
	err        error
}

// Build renders every (page, locale) pair in scope from one dictionary
// snapshot. Per-page problems are collected in the result; only failures to
// load the snapshot or to write artifacts are returned as errors.
func (s *Service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.stores == nil {
		return nil, ErrStoreRequired
	}

	start := s.now()
	pages, err := s.registry.FilterPages(opts.Pages)
	if err != nil {
		return nil, err
	}
	locales, err := s.registry.FilterLocales(opts.Locales)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(s.registry.Locales))
	for _, locale := range s.registry.Locales {
		codes = append(codes, locale.Code)
	}
	store, err := s.stores.LoadStore(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("render: load dictionaries: %w", err)
	}

	result := &BuildResult{
		RunID:       s.newID(),
		GeneratedAt: start.UTC(),
		DryRun:      opts.DryRun,
		Locales:     make([]string, 0, len(locales)),
	}
	for _, locale := range locales {
		result.Locales = append(result.Locales, locale.Code)
	}
	logger := logging.WithFields(logging.FromContext(ctx, s.logger), map[string]any{"run_id": result.RunID.String()})
	for _, failure := range store.Failures() {
		result.Errors = append(result.Errors, failure)
		logging.WithPageContext(logger, "", failure.Locale, "").Warn("render.dictionary.invalid", "error", failure.Err)
	}

	jobs := make([]renderJob, 0, len(pages)*len(locales))
	for _, page := range pages {
		templatePath := path.Join(s.cfg.TemplatesDir, page.Template)
		data, ok, err := localstorage.ReadFile(ctx, s.storage, templatePath)
		if err != nil {
			return nil, err
		}
		if !ok {
			err := fmt.Errorf("%w: %s (%s)", ErrTemplateMissing, page.Key, templatePath)
			result.Errors = append(result.Errors, err)
			logging.WithPageContext(logger, page.Key, "", "").Warn("render.template.missing", "template", templatePath)
			continue
		}
		for _, locale := range locales {
			jobs = append(jobs, renderJob{page: page, locale: locale, template: templatePath, source: string(data)})
		}
	}

	outcomes := make([]renderOutcome, len(jobs))
	workers := effectiveWorkerCount(s.cfg.Workers, len(jobs))
	if workers <= 1 {
		for i, job := range jobs {
			outcomes[i] = s.renderPage(ctx, job, store)
		}
	} else {
		s.renderConcurrently(ctx, jobs, workers, store, outcomes)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	previous := s.loadManifest(ctx, logger)
	manifest := newBuildManifest(result.RunID, result.GeneratedAt)
	writer := newArtifactWriter(s.storage, opts.DryRun)
	var writeErrs []error

	for _, outcome := range outcomes {
		if outcome.err != nil {
			result.Errors = append(result.Errors, outcome.err)
			continue
		}
		job := outcome.job
		output := s.outputPath(job.locale.OutputPath(job.page.Output))
		content := []byte(outcome.text)
		rendered := RenderedPage{
			Page:       job.page.Key,
			Locale:     job.locale.Code,
			Template:   job.template,
			Output:     output,
			Checksum:   computeHash(content),
			Size:       int64(len(content)),
			Unresolved: len(outcome.unresolved),
		}
		rendered.Changed = previous.checksum(output) != rendered.Checksum

		pageLogger := logging.WithPageContext(logger, job.page.Key, job.locale.Code, "")
		for _, miss := range outcome.unresolved {
			pageLogger.Debug("render.placeholder.unresolved", "placeholder", miss.Raw, "reason", string(miss.Reason), "line", miss.Line)
		}
		if len(outcome.unresolved) > 0 {
			pageLogger.Warn("render.page.unresolved", "count", len(outcome.unresolved))
		}

		if err := writer.WriteFile(ctx, writeFileRequest{Path: output, Content: content, Category: categoryPage}); err != nil {
			pageLogger.Error("render.page.write_failed", "error", err)
			writeErrs = append(writeErrs, err)
			continue
		}
		manifest.add(manifestOutput{
			ID:         identity.PageUUID(rendered.Page, rendered.Locale).String(),
			Page:       rendered.Page,
			Locale:     rendered.Locale,
			Output:     rendered.Output,
			Category:   string(categoryPage),
			Checksum:   rendered.Checksum,
			Size:       rendered.Size,
			Unresolved: rendered.Unresolved,
		})
		result.Rendered = append(result.Rendered, rendered)
		result.Unresolved = append(result.Unresolved, outcome.unresolved...)
		result.PagesBuilt++
		if rendered.Changed {
			result.PagesChanged++
		}
	}

	if s.cfg.GenerateSitemap {
		entries := sitemapEntries(s.registry, result.GeneratedAt)
		result.SitemapEntries = len(entries)
		if err := s.writeArtifact(ctx, writer, manifest, sitemapFileName, buildSitemap(entries), categorySitemap); err != nil {
			writeErrs = append(writeErrs, err)
		}
	}
	if s.cfg.GenerateRobots {
		if err := s.writeArtifact(ctx, writer, manifest, robotsFileName, buildRobots(s.registry.BaseURL, s.cfg.GenerateSitemap), categoryRobots); err != nil {
			writeErrs = append(writeErrs, err)
		}
	}
	if s.cfg.GenerateManifest && len(writeErrs) == 0 {
		data, err := manifest.marshal()
		if err == nil {
			err = writer.WriteFile(ctx, writeFileRequest{Path: s.outputPath(manifestFileName), Content: data, Category: categoryManifest})
		}
		if err != nil {
			writeErrs = append(writeErrs, err)
		}
	}

	result.Duration = s.now().Sub(start)
	logger.Info("render.build.done",
		"pages", result.PagesBuilt,
		"changed", result.PagesChanged,
		"unresolved", len(result.Unresolved),
		"errors", len(result.Errors)+len(writeErrs),
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)

	if len(writeErrs) > 0 {
		result.Errors = append(result.Errors, writeErrs...)
		return result, errors.Join(writeErrs...)
	}
	return result, nil
}

func (s *Service) renderConcurrently(ctx context.Context, jobs []renderJob, workers int, store *dictionary.Store, outcomes []renderOutcome) {
	indexes := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				outcomes[idx] = s.renderPage(ctx, jobs[idx], store)
			}
		}()
	}

	for idx := range jobs {
		select {
		case <-ctx.Done():
			close(indexes)
			wg.Wait()
			return
		case indexes <- idx:
		}
	}
	close(indexes)
	wg.Wait()
}

func (s *Service) renderPage(ctx context.Context, job renderJob, store *dictionary.Store) renderOutcome {
	outcome := renderOutcome{job: job}
	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}
	outcome.text, outcome.unresolved = s.engine.Render(job.source, job.page, job.locale, store)
	return outcome
}

func (s *Service) writeArtifact(ctx context.Context, writer artifactWriter, manifest *buildManifest, name, content string, category writeCategory) error {
	target := s.outputPath(name)
	data := []byte(content)
	if err := writer.WriteFile(ctx, writeFileRequest{Path: target, Content: data, Category: category}); err != nil {
		return err
	}
	manifest.add(manifestOutput{
		ID:       identity.ArtifactUUID(target).String(),
		Output:   target,
		Category: string(category),
		Checksum: computeHash(data),
		Size:     int64(len(data)),
	})
	return nil
}

// loadManifest returns the previous build manifest; an unreadable one is
// treated as absent.
func (s *Service) loadManifest(ctx context.Context, logger interfaces.Logger) *buildManifest {
	if s.storage == nil {
		return nil
	}
	data, ok, err := localstorage.ReadFile(ctx, s.storage, s.outputPath(manifestFileName))
	if err != nil || !ok {
		return nil
	}
	manifest, err := parseManifest(data)
	if err != nil {
		logger.Warn("render.manifest.invalid", "error", err)
		return nil
	}
	return manifest
}

func (s *Service) outputPath(rel string) string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	if base == "" {
		return rel
	}
	return path.Join(base, rel)
}

func effectiveWorkerCount(workers, jobs int) int {
	if workers < 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if jobs > 0 && workers > jobs {
		return jobs
	}
	return workers
}
