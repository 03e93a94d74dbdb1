package sitecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/translate"
	"github.com/goliatone/go-localize/internal/verify"
)

const (
	extractMessageType   = "localize.site.extract"
	staleMessageType     = "localize.site.stale"
	translateMessageType = "localize.site.translate"
	buildMessageType     = "localize.site.build"
	verifyMessageType    = "localize.site.verify"
)

// ExtractPagesCommand extracts registered pages into templates and the
// source dictionary. An empty Pages list selects every page.
type ExtractPagesCommand struct {
	Pages          []string              `json:"pages,omitempty"`
	DryRun         bool                  `json:"dry_run,omitempty"`
	ResultCallback func(*extract.Report) `json:"-"`
}

// Type implements command.Message.
func (ExtractPagesCommand) Type() string { return extractMessageType }

// Validate rejects blank page keys.
func (m ExtractPagesCommand) Validate() error {
	return validateLists(extractMessageType, m.Pages, nil)
}

// ReportStaleCommand lists stale scopes per locale without translating.
type ReportStaleCommand struct {
	Locales        []string                `json:"locales,omitempty"`
	ResultCallback func(*translate.Report) `json:"-"`
}

// Type implements command.Message.
func (ReportStaleCommand) Type() string { return staleMessageType }

// Validate rejects blank locale codes.
func (m ReportStaleCommand) Validate() error {
	return validateLists(staleMessageType, nil, m.Locales)
}

// RefreshTranslationsCommand re-translates stale scopes.
type RefreshTranslationsCommand struct {
	Locales        []string                `json:"locales,omitempty"`
	DryRun         bool                    `json:"dry_run,omitempty"`
	ResultCallback func(*translate.Report) `json:"-"`
}

// Type implements command.Message.
func (RefreshTranslationsCommand) Type() string { return translateMessageType }

// Validate rejects blank locale codes.
func (m RefreshTranslationsCommand) Validate() error {
	return validateLists(translateMessageType, nil, m.Locales)
}

// BuildSiteCommand renders templates for the selected pages and locales.
type BuildSiteCommand struct {
	Pages          []string                  `json:"pages,omitempty"`
	Locales        []string                  `json:"locales,omitempty"`
	DryRun         bool                      `json:"dry_run,omitempty"`
	ResultCallback func(*render.BuildResult) `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildMessageType }

// Validate rejects blank page keys and locale codes.
func (m BuildSiteCommand) Validate() error {
	return validateLists(buildMessageType, m.Pages, m.Locales)
}

// VerifySiteCommand verifies the rendered tree. Unresolved carries the
// diagnostics of the build that produced it; Templates and Source enable the
// key surface check. With AllowErrors set, hard errors are only reported
// through the callback and the command succeeds.
type VerifySiteCommand struct {
	Unresolved     []render.Unresolved   `json:"-"`
	Templates      map[string]string     `json:"-"`
	Source         dictionary.Dictionary `json:"-"`
	AllowErrors    bool                  `json:"allow_errors,omitempty"`
	ResultCallback func(*verify.Report)  `json:"-"`
}

// Type implements command.Message.
func (VerifySiteCommand) Type() string { return verifyMessageType }

// Validate requires templates and source to be given together.
func (m VerifySiteCommand) Validate() error {
	errs := validation.Errors{}
	if (len(m.Templates) == 0) != (m.Source == nil) {
		errs["templates"] = validation.NewError(verifyMessageType+".key_surface_incomplete", "templates and source dictionary must be provided together")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLists(messageType string, pages, locales []string) error {
	errs := validation.Errors{}
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			errs["pages"] = validation.NewError(messageType+".page_invalid", "pages must not contain empty values")
			break
		}
	}
	for _, locale := range locales {
		if strings.TrimSpace(locale) == "" {
			errs["locales"] = validation.NewError(messageType+".locale_invalid", "locales must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// normalize trims values and drops case-insensitive duplicates, keeping the
// first spelling.
func normalize(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
