// Package di wires the pipeline stages from a validated configuration.
package di

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/goliatone/go-localize/internal/commands"
	sitecmd "github.com/goliatone/go-localize/internal/commands/site"
	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/logging/gologger"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/runtimeconfig"
	"github.com/goliatone/go-localize/internal/site"
	localstorage "github.com/goliatone/go-localize/internal/storage"
	"github.com/goliatone/go-localize/internal/translate"
	"github.com/goliatone/go-localize/internal/verify"
	"github.com/goliatone/go-localize/pkg/interfaces"
	"github.com/goliatone/go-localize/pkg/storage"
)

// Container holds the wired stage services and their command handlers.
type Container struct {
	Config runtimeconfig.Config

	registry       site.Registry
	storage        storage.Provider
	loggerProvider interfaces.LoggerProvider
	translator     interfaces.Translator
	outputFS       fs.FS

	store      *dictionary.FileStore
	extractSvc *extract.Service
	refresher  *translate.Refresher
	buildSvc   *render.Service
	verifier   *verify.Verifier

	extractHandler   *sitecmd.ExtractPagesHandler
	staleHandler     *sitecmd.ReportStaleHandler
	translateHandler *sitecmd.RefreshTranslationsHandler
	buildHandler     *sitecmd.BuildSiteHandler
	verifyHandler    *sitecmd.VerifySiteHandler
}

// Option mutates the container before services are wired.
type Option func(*Container)

// WithStorage replaces the filesystem provider rooted at paths.root.
func WithStorage(provider storage.Provider) Option {
	return func(c *Container) {
		if provider != nil {
			c.storage = provider
		}
	}
}

// WithLoggerProvider replaces the go-logger provider built from [logging].
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithTranslator sets the translation collaborator.
func WithTranslator(translator interfaces.Translator) Option {
	return func(c *Container) {
		c.translator = translator
	}
}

// WithOutputFS replaces the directory verification reads from. Use it
// together with WithStorage when the rendered tree is not on local disk.
func WithOutputFS(fsys fs.FS) Option {
	return func(c *Container) {
		if fsys != nil {
			c.outputFS = fsys
		}
	}
}

// NewContainer validates cfg and wires every stage.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		registry: cfg.Registry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.loggerProvider == nil {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("di: logger provider: %w", err)
		}
		c.loggerProvider = provider
	}
	if c.storage == nil {
		c.storage = localstorage.NewFilesystem(cfg.Paths.Root)
	}
	if c.outputFS == nil {
		c.outputFS = os.DirFS(cfg.Path(cfg.Paths.Output))
	}

	c.configureServices()
	c.configureHandlers()
	return c, nil
}

func (c *Container) configureServices() {
	cfg := c.Config
	c.store = dictionary.NewFileStore(c.storage, cfg.Paths.Locales, c.registry.SourceLocale)

	c.extractSvc = extract.NewService(
		extract.Config{PagesDir: cfg.Paths.Pages, TemplatesDir: cfg.Paths.Templates},
		c.registry,
		extract.New(cfg.Vocabulary()),
		c.storage,
		c.store,
		logging.ExtractLogger(c.loggerProvider),
	)

	c.refresher = translate.NewRefresher(
		c.registry,
		c.store,
		c.translator,
		cfg.ProtectedTerms(),
		logging.TranslateLogger(c.loggerProvider),
	)

	c.buildSvc = render.NewService(
		render.Config{
			TemplatesDir:     cfg.Paths.Templates,
			OutputDir:        cfg.Paths.Output,
			Workers:          cfg.Build.Workers,
			GenerateSitemap:  cfg.Build.Sitemap,
			GenerateRobots:   cfg.Build.Robots,
			GenerateManifest: cfg.Build.Manifest,
		},
		c.registry,
		c.store,
		c.storage,
		logging.RenderLogger(c.loggerProvider),
	)

	c.verifier = verify.New(c.registry, c.outputFS, logging.VerifyLogger(c.loggerProvider))
}

func (c *Container) configureHandlers() {
	timeout := time.Duration(c.Config.Commands.TimeoutSeconds) * time.Second

	c.extractHandler = sitecmd.NewExtractPagesHandler(c.extractSvc,
		logging.CommandLogger(c.loggerProvider, "extract"),
		commands.WithTimeout[sitecmd.ExtractPagesCommand](timeout))
	c.staleHandler = sitecmd.NewReportStaleHandler(c.refresher,
		logging.CommandLogger(c.loggerProvider, "stale"),
		commands.WithTimeout[sitecmd.ReportStaleCommand](timeout))
	c.translateHandler = sitecmd.NewRefreshTranslationsHandler(c.refresher,
		logging.CommandLogger(c.loggerProvider, "translate"),
		commands.WithTimeout[sitecmd.RefreshTranslationsCommand](timeout))
	c.buildHandler = sitecmd.NewBuildSiteHandler(c.buildSvc,
		logging.CommandLogger(c.loggerProvider, "build"),
		commands.WithTimeout[sitecmd.BuildSiteCommand](timeout))
	c.verifyHandler = sitecmd.NewVerifySiteHandler(c.verifier,
		c.Config.Verify.AssetExtensions,
		logging.CommandLogger(c.loggerProvider, "verify"),
		commands.WithTimeout[sitecmd.VerifySiteCommand](timeout))
}

// KeySurfaceInputs loads every registered page's template and the source
// dictionary. Pages without a template are left out.
func (c *Container) KeySurfaceInputs(ctx context.Context) (map[string]string, dictionary.Dictionary, error) {
	templates := make(map[string]string, len(c.registry.Pages))
	for _, page := range c.registry.Pages {
		raw, ok, err := localstorage.ReadFile(ctx, c.storage, path.Join(c.Config.Paths.Templates, page.Template))
		if err != nil {
			return nil, nil, err
		}
		if ok {
			templates[page.Key] = string(raw)
		}
	}
	source, err := c.store.Load(ctx, c.registry.SourceLocale)
	if err != nil {
		return nil, nil, err
	}
	return templates, source, nil
}

// Registry returns the site registry derived from the configuration.
func (c *Container) Registry() site.Registry { return c.registry }

// StorageProvider returns the artifact storage.
func (c *Container) StorageProvider() storage.Provider { return c.storage }

// LoggerProvider returns the logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Store returns the dictionary file store.
func (c *Container) Store() *dictionary.FileStore { return c.store }

func (c *Container) ExtractHandler() *sitecmd.ExtractPagesHandler { return c.extractHandler }

func (c *Container) StaleHandler() *sitecmd.ReportStaleHandler { return c.staleHandler }

func (c *Container) TranslateHandler() *sitecmd.RefreshTranslationsHandler {
	return c.translateHandler
}

func (c *Container) BuildHandler() *sitecmd.BuildSiteHandler { return c.buildHandler }

func (c *Container) VerifyHandler() *sitecmd.VerifySiteHandler { return c.verifyHandler }
