// Package sitecmd exposes the pipeline stages as go-command handlers.
package sitecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-localize/internal/commands"
	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/translate"
	"github.com/goliatone/go-localize/internal/verify"
	"github.com/goliatone/go-localize/pkg/interfaces"
)

// ErrServiceUnavailable is returned when a handler has no stage service.
var ErrServiceUnavailable = errors.New("sitecmd: service unavailable")

// Extractor runs extraction over the page registry.
type Extractor interface {
	Run(ctx context.Context, opts extract.RunOptions) (*extract.Report, error)
}

// Refresher plans or runs translation refreshes.
type Refresher interface {
	Refresh(ctx context.Context, opts translate.Options) (*translate.Report, error)
}

// Builder renders the site.
type Builder interface {
	Build(ctx context.Context, opts render.BuildOptions) (*render.BuildResult, error)
}

// Verifier checks a rendered tree.
type Verifier interface {
	Verify(ctx context.Context, opts verify.Options) (*verify.Report, error)
}

var (
	_ command.Commander[ExtractPagesCommand]        = (*ExtractPagesHandler)(nil)
	_ command.Commander[ReportStaleCommand]         = (*ReportStaleHandler)(nil)
	_ command.Commander[RefreshTranslationsCommand] = (*RefreshTranslationsHandler)(nil)
	_ command.Commander[BuildSiteCommand]           = (*BuildSiteHandler)(nil)
	_ command.Commander[VerifySiteCommand]          = (*VerifySiteHandler)(nil)
)

// ExtractPagesHandler runs extraction.
type ExtractPagesHandler struct {
	inner *commands.Handler[ExtractPagesCommand]
}

// NewExtractPagesHandler wires the handler to service.
func NewExtractPagesHandler(service Extractor, logger interfaces.Logger, opts ...commands.HandlerOption[ExtractPagesCommand]) *ExtractPagesHandler {
	logger = logging.OrNoOp(logger)
	exec := func(ctx context.Context, msg ExtractPagesCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		report, err := service.Run(ctx, extract.RunOptions{
			Pages:  normalize(msg.Pages),
			DryRun: msg.DryRun,
		})
		if report != nil && msg.ResultCallback != nil {
			msg.ResultCallback(report)
		}
		return err
	}
	fields := func(msg ExtractPagesCommand) map[string]any {
		out := map[string]any{}
		if len(msg.Pages) > 0 {
			out["pages"] = len(msg.Pages)
		}
		if msg.DryRun {
			out["dry_run"] = true
		}
		return out
	}
	return &ExtractPagesHandler{
		inner: commands.NewHandler(exec, handlerOptions("site.extract", logger, fields, opts)...),
	}
}

// Execute satisfies command.Commander[ExtractPagesCommand].
func (h *ExtractPagesHandler) Execute(ctx context.Context, msg ExtractPagesCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ReportStaleHandler lists stale scopes through a dry-run refresh.
type ReportStaleHandler struct {
	inner *commands.Handler[ReportStaleCommand]
}

// NewReportStaleHandler wires the handler to service.
func NewReportStaleHandler(service Refresher, logger interfaces.Logger, opts ...commands.HandlerOption[ReportStaleCommand]) *ReportStaleHandler {
	logger = logging.OrNoOp(logger)
	exec := func(ctx context.Context, msg ReportStaleCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		report, err := service.Refresh(ctx, translate.Options{
			Locales: normalize(msg.Locales),
			DryRun:  true,
		})
		if report != nil && msg.ResultCallback != nil {
			msg.ResultCallback(report)
		}
		return err
	}
	fields := func(msg ReportStaleCommand) map[string]any {
		if len(msg.Locales) == 0 {
			return nil
		}
		return map[string]any{"locales": len(msg.Locales)}
	}
	return &ReportStaleHandler{
		inner: commands.NewHandler(exec, handlerOptions("site.stale", logger, fields, opts)...),
	}
}

// Execute satisfies command.Commander[ReportStaleCommand].
func (h *ReportStaleHandler) Execute(ctx context.Context, msg ReportStaleCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RefreshTranslationsHandler translates stale scopes.
type RefreshTranslationsHandler struct {
	inner *commands.Handler[RefreshTranslationsCommand]
}

// NewRefreshTranslationsHandler wires the handler to service. Translation
// calls can be slow, so callers usually pass a generous WithTimeout.
func NewRefreshTranslationsHandler(service Refresher, logger interfaces.Logger, opts ...commands.HandlerOption[RefreshTranslationsCommand]) *RefreshTranslationsHandler {
	logger = logging.OrNoOp(logger)
	exec := func(ctx context.Context, msg RefreshTranslationsCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		report, err := service.Refresh(ctx, translate.Options{
			Locales: normalize(msg.Locales),
			DryRun:  msg.DryRun,
		})
		if report != nil && msg.ResultCallback != nil {
			msg.ResultCallback(report)
		}
		return err
	}
	fields := func(msg RefreshTranslationsCommand) map[string]any {
		out := map[string]any{}
		if len(msg.Locales) > 0 {
			out["locales"] = len(msg.Locales)
		}
		if msg.DryRun {
			out["dry_run"] = true
		}
		return out
	}
	return &RefreshTranslationsHandler{
		inner: commands.NewHandler(exec, handlerOptions("site.translate", logger, fields, opts)...),
	}
}

// Execute satisfies command.Commander[RefreshTranslationsCommand].
func (h *RefreshTranslationsHandler) Execute(ctx context.Context, msg RefreshTranslationsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildSiteHandler renders the site.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler wires the handler to service.
func NewBuildSiteHandler(service Builder, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	logger = logging.OrNoOp(logger)
	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		result, err := service.Build(ctx, render.BuildOptions{
			Pages:   normalize(msg.Pages),
			Locales: normalize(msg.Locales),
			DryRun:  msg.DryRun,
		})
		if result != nil && msg.ResultCallback != nil {
			msg.ResultCallback(result)
		}
		return err
	}
	fields := func(msg BuildSiteCommand) map[string]any {
		out := map[string]any{}
		if len(msg.Pages) > 0 {
			out["pages"] = len(msg.Pages)
		}
		if len(msg.Locales) > 0 {
			out["locales"] = len(msg.Locales)
		}
		if msg.DryRun {
			out["dry_run"] = true
		}
		return out
	}
	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOptions("site.build", logger, fields, opts)...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// VerifySiteHandler verifies the rendered tree.
type VerifySiteHandler struct {
	inner *commands.Handler[VerifySiteCommand]
}

// NewVerifySiteHandler wires the handler to service. assetExtensions
// overrides the link check's asset list when not empty.
func NewVerifySiteHandler(service Verifier, assetExtensions []string, logger interfaces.Logger, opts ...commands.HandlerOption[VerifySiteCommand]) *VerifySiteHandler {
	logger = logging.OrNoOp(logger)
	exec := func(ctx context.Context, msg VerifySiteCommand) error {
		if service == nil {
			return ErrServiceUnavailable
		}
		report, err := service.Verify(ctx, verify.Options{
			Unresolved:      msg.Unresolved,
			Templates:       msg.Templates,
			Source:          msg.Source,
			AssetExtensions: assetExtensions,
		})
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(report)
		}
		if msg.AllowErrors {
			return nil
		}
		return report.Err()
	}
	fields := func(msg VerifySiteCommand) map[string]any {
		out := map[string]any{}
		if len(msg.Unresolved) > 0 {
			out["unresolved"] = len(msg.Unresolved)
		}
		if len(msg.Templates) > 0 {
			out["key_surface"] = true
		}
		return out
	}
	return &VerifySiteHandler{
		inner: commands.NewHandler(exec, handlerOptions("site.verify", logger, fields, opts)...),
	}
}

// Execute satisfies command.Commander[VerifySiteCommand].
func (h *VerifySiteHandler) Execute(ctx context.Context, msg VerifySiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func handlerOptions[T command.Message](operation string, logger interfaces.Logger, fields func(T) map[string]any, extra []commands.HandlerOption[T]) []commands.HandlerOption[T] {
	opts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithTelemetry(commands.DefaultTelemetry[T](logger)),
	}
	return append(opts, extra...)
}
