package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/placeholder"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/site"
	"github.com/goliatone/go-localize/pkg/interfaces"
)

// DefaultAssetExtensions lists link targets the link check ignores.
var DefaultAssetExtensions = []string{
	".css", ".js", ".mjs", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".avif", ".ico",
	".pdf", ".woff", ".woff2", ".ttf", ".json", ".xml", ".txt", ".webmanifest", ".mp4", ".webm",
}

// Options supplies optional inputs to a run.
type Options struct {
	// Unresolved carries the build's render diagnostics so placeholder
	// findings can name the reason for each miss.
	Unresolved []render.Unresolved
	// Templates maps page keys to template text. With Source set, the key
	// surface check runs over them.
	Templates map[string]string
	Source    dictionary.Dictionary
	// AssetExtensions overrides DefaultAssetExtensions when not empty.
	AssetExtensions []string
}

// Verifier checks a rendered tree against the registries.
type Verifier struct {
	registry site.Registry
	fsys     fs.FS
	logger   interfaces.Logger
	now      func() time.Time
}

// New returns a verifier over fsys, whose root is the output directory.
func New(registry site.Registry, fsys fs.FS, logger interfaces.Logger) *Verifier {
	return &Verifier{
		registry: registry,
		fsys:     fsys,
		logger:   logging.OrNoOp(logger),
		now:      time.Now,
	}
}

// renderedFile is one (page, locale) output that exists.
type renderedFile struct {
	page   site.Page
	locale site.Locale
	path   string
	text   string
	doc    *htmlscan.Document
}

// Verify runs every check. The returned error is non-nil only when ctx is
// done; findings are reported through Report.Err.
func (v *Verifier) Verify(ctx context.Context, opts Options) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := v.now()
	report := &Report{}

	files, err := v.collect(ctx, report)
	if err != nil {
		return report, err
	}
	report.Files = len(files)

	reasons := unresolvedReasons(opts.Unresolved)
	links := newLinkChecker(v.fsys, opts.AssetExtensions)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		v.checkPlaceholders(report, file, reasons)
		v.checkLeakage(report, file)
		v.checkHTMLLang(report, file)
		v.checkHreflang(report, file)
		v.checkNoIndex(report, file)
		links.check(report, file)
	}

	v.checkSitemap(report)
	if opts.Templates != nil && opts.Source != nil {
		v.checkKeySurface(report, opts.Templates, opts.Source)
	}

	report.Duration = v.now().Sub(start)
	for _, issue := range report.Errors() {
		v.logger.Debug("verify.issue", "check", string(issue.Check), "path", issue.Path, "message", issue.Message)
	}
	v.logger.Info("verify.run.done",
		"files", report.Files,
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
		"duration", report.Duration,
	)
	return report, nil
}

// collect reads every (page, locale) output, recording completeness errors
// for the ones that are missing.
func (v *Verifier) collect(ctx context.Context, report *Report) ([]renderedFile, error) {
	files := make([]renderedFile, 0, len(v.registry.Pages)*len(v.registry.Locales))
	for _, page := range v.registry.Pages {
		for _, locale := range v.registry.Locales {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			target := locale.OutputPath(page.Output)
			data, err := fs.ReadFile(v.fsys, target)
			if err != nil {
				message := "rendered file missing"
				if !errors.Is(err, fs.ErrNotExist) {
					message = fmt.Sprintf("rendered file unreadable: %v", err)
				}
				report.add(Issue{
					Check: CheckCompleteness, Severity: SeverityError,
					Page: page.Key, Locale: locale.Code, Path: target, Message: message,
				})
				continue
			}
			text := string(data)
			files = append(files, renderedFile{
				page:   page,
				locale: locale,
				path:   target,
				text:   text,
				doc:    htmlscan.Scan(text, htmlscan.Options{}),
			})
		}
	}
	return files, nil
}

func (v *Verifier) checkKeySurface(report *Report, templates map[string]string, source dictionary.Dictionary) {
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, pageKey := range keys {
		template := templates[pageKey]
		doc := htmlscan.Scan(template, htmlscan.Options{})
		seen := map[string]struct{}{}
		for _, ref := range placeholder.ScanTranslations(template) {
			if doc.Within(ref.Start, htmlscan.Opaque) {
				continue
			}
			if _, ok := seen[ref.Raw]; ok {
				continue
			}
			seen[ref.Raw] = struct{}{}
			if _, ok := source.Get(ref.Scope, ref.Key); ok {
				continue
			}
			report.add(Issue{
				Check:    CheckKeySurface,
				Severity: SeverityError,
				Page:     pageKey,
				Line:     lineAt(template, ref.Start),
				Message:  fmt.Sprintf("%s is missing from the source dictionary", ref.Raw),
			})
		}
	}
}

func unresolvedReasons(entries []render.Unresolved) map[string]render.Reason {
	out := make(map[string]render.Reason, len(entries))
	for _, entry := range entries {
		key := reasonKey(entry.Page, entry.Locale, entry.Raw)
		if _, ok := out[key]; !ok {
			out[key] = entry.Reason
		}
	}
	return out
}

func reasonKey(page, locale, raw string) string {
	return page + "|" + strings.ToLower(locale) + "|" + raw
}

func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
