// Package localize turns a static site into a multilingual one: it extracts
// translatable text into per-locale dictionaries, refreshes translations
// through an external translator, renders every page for every locale and
// verifies the rendered tree.
package localize

import (
	"context"
	"io/fs"

	sitecmd "github.com/goliatone/go-localize/internal/commands/site"
	"github.com/goliatone/go-localize/internal/di"
	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/site"
	"github.com/goliatone/go-localize/internal/translate"
	"github.com/goliatone/go-localize/internal/verify"
	"github.com/goliatone/go-localize/pkg/interfaces"
	"github.com/goliatone/go-localize/pkg/storage"
)

type (
	Registry        = site.Registry
	Page            = site.Page
	Locale          = site.Locale
	ExtractReport   = extract.Report
	TranslateReport = translate.Report
	BuildResult     = render.BuildResult
	Unresolved      = render.Unresolved
	VerifyReport    = verify.Report
	Issue           = verify.Issue
)

// ErrVerificationFailed is wrapped by Verify when the report has errors.
var ErrVerificationFailed = verify.ErrVerificationFailed

// Option customises collaborators before the pipeline is wired.
type Option = di.Option

// WithLoggerProvider replaces the go-logger provider built from [logging].
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithTranslator sets the collaborator used by Translate.
func WithTranslator(translator interfaces.Translator) Option {
	return di.WithTranslator(translator)
}

// WithStorage replaces the filesystem rooted at paths.root.
func WithStorage(provider storage.Provider) Option {
	return di.WithStorage(provider)
}

// WithOutputFS replaces the tree Verify reads.
func WithOutputFS(fsys fs.FS) Option {
	return di.WithOutputFS(fsys)
}

// ExtractOptions narrows Extract. Empty Pages selects every page.
type ExtractOptions struct {
	Pages  []string
	DryRun bool
}

// TranslateOptions narrows Translate. Empty Locales selects every
// non-source locale.
type TranslateOptions struct {
	Locales []string
	DryRun  bool
}

// BuildOptions narrows Build.
type BuildOptions struct {
	Pages   []string
	Locales []string
	DryRun  bool
}

// VerifyOptions tunes Verify. Unresolved should carry the diagnostics of
// the build being verified.
type VerifyOptions struct {
	Unresolved []Unresolved
	// AllowErrors returns the report without an error when it has errors.
	AllowErrors bool
}

// Module is the pipeline facade.
type Module struct {
	container *di.Container
}

// New validates cfg and wires the pipeline.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the wiring for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Registry returns the page and locale registries.
func (m *Module) Registry() Registry {
	return m.container.Registry()
}

// Extract turns raw pages into templates and merges their text into the
// source dictionary.
func (m *Module) Extract(ctx context.Context, opts ExtractOptions) (*ExtractReport, error) {
	var report *ExtractReport
	err := m.container.ExtractHandler().Execute(ctx, sitecmd.ExtractPagesCommand{
		Pages:          opts.Pages,
		DryRun:         opts.DryRun,
		ResultCallback: func(r *extract.Report) { report = r },
	})
	return report, err
}

// Stale lists the scopes Translate would refresh, without calling the
// translator.
func (m *Module) Stale(ctx context.Context, locales ...string) (*TranslateReport, error) {
	var report *TranslateReport
	err := m.container.StaleHandler().Execute(ctx, sitecmd.ReportStaleCommand{
		Locales:        locales,
		ResultCallback: func(r *translate.Report) { report = r },
	})
	return report, err
}

// Translate refreshes stale scopes through the configured translator.
func (m *Module) Translate(ctx context.Context, opts TranslateOptions) (*TranslateReport, error) {
	var report *TranslateReport
	err := m.container.TranslateHandler().Execute(ctx, sitecmd.RefreshTranslationsCommand{
		Locales:        opts.Locales,
		DryRun:         opts.DryRun,
		ResultCallback: func(r *translate.Report) { report = r },
	})
	return report, err
}

// Build renders templates for every selected (page, locale).
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	err := m.container.BuildHandler().Execute(ctx, sitecmd.BuildSiteCommand{
		Pages:          opts.Pages,
		Locales:        opts.Locales,
		DryRun:         opts.DryRun,
		ResultCallback: func(r *render.BuildResult) { result = r },
	})
	return result, err
}

// Verify checks the rendered tree. The report is returned even when it
// fails.
func (m *Module) Verify(ctx context.Context, opts VerifyOptions) (*VerifyReport, error) {
	msg := sitecmd.VerifySiteCommand{
		Unresolved:  opts.Unresolved,
		AllowErrors: opts.AllowErrors,
	}
	if m.container.Config.Verify.KeySurface {
		templates, source, err := m.container.KeySurfaceInputs(ctx)
		if err != nil {
			return nil, err
		}
		if len(templates) > 0 {
			msg.Templates = templates
			msg.Source = source
		}
	}

	var report *VerifyReport
	msg.ResultCallback = func(r *verify.Report) { report = r }
	err := m.container.VerifyHandler().Execute(ctx, msg)
	return report, err
}
