// Package translate refreshes non-source dictionaries through the external
// Translator, one stale scope at a time. Each accepted scope is persisted
// before the next call so an interrupted run resumes where it stopped.
package translate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/logging"
	"github.com/goliatone/go-localize/internal/site"
	"github.com/goliatone/go-localize/pkg/interfaces"
)

var (
	// ErrTranslatorRequired is returned when no Translator is configured.
	ErrTranslatorRequired = errors.New("translate: translator is required")
	// ErrSourceLocale is returned when the source locale is requested as a target.
	ErrSourceLocale = errors.New("translate: source locale cannot be a target")
)

// Status is the outcome of one scope refresh.
type Status string

const (
	StatusTranslated Status = "translated"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
	StatusPlanned    Status = "planned"
)

// Store loads and saves locale dictionaries.
type Store interface {
	Load(ctx context.Context, code string) (dictionary.Dictionary, error)
	Save(ctx context.Context, code string, dict dictionary.Dictionary) error
}

// Options narrows a refresh run. DryRun lists stale scopes without calling
// the translator.
type Options struct {
	Locales []string
	DryRun  bool
}

// Outcome records what happened to one (locale, scope).
type Outcome struct {
	Locale   string
	Scope    string
	Status   Status
	Keys     int
	Previous int
	Err      error
}

// Report aggregates a refresh run.
type Report struct {
	Outcomes []Outcome
	Duration time.Duration
	DryRun   bool
}

// Count returns the number of outcomes with status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// Refresher drives the Translator over stale scopes.
type Refresher struct {
	registry       site.Registry
	store          Store
	translator     interfaces.Translator
	protectedTerms []string
	logger         interfaces.Logger
	now            func() time.Time
}

// NewRefresher wires a refresher. protectedTerms apply to every locale.
func NewRefresher(registry site.Registry, store Store, translator interfaces.Translator, protectedTerms []string, logger interfaces.Logger) *Refresher {
	return &Refresher{
		registry:       registry,
		store:          store,
		translator:     translator,
		protectedTerms: protectedTerms,
		logger:         logging.OrNoOp(logger),
		now:            time.Now,
	}
}

// Refresh translates every stale scope of every target locale. Collaborator
// failures and rejected results are recorded and the prior scope content is
// kept; the run continues with the next scope. Only cancellation, load and
// save errors stop it.
func (r *Refresher) Refresh(ctx context.Context, opts Options) (*Report, error) {
	start := r.now()
	if r.translator == nil && !opts.DryRun {
		return nil, ErrTranslatorRequired
	}
	targets, err := r.targets(opts.Locales)
	if err != nil {
		return nil, err
	}
	source, err := r.store.Load(ctx, r.registry.SourceLocale)
	if err != nil {
		return nil, err
	}

	report := &Report{DryRun: opts.DryRun}
	for _, locale := range targets {
		dict, err := r.store.Load(ctx, locale.Code)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Outcomes = append(report.Outcomes, Outcome{Locale: locale.Code, Status: StatusFailed, Err: err})
			logging.WithPageContext(r.logger, "", locale.Code, "").Warn("translate.locale.invalid", "error", err)
			continue
		}
		for _, stale := range dictionary.StaleScopes(source, dict) {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			outcome := Outcome{Locale: locale.Code, Scope: stale.Scope, Keys: stale.SourceKeys, Previous: stale.CurrentKeys}
			if opts.DryRun {
				outcome.Status = StatusPlanned
				report.Outcomes = append(report.Outcomes, outcome)
				continue
			}
			outcome, err = r.refreshScope(ctx, locale, source, dict, outcome)
			report.Outcomes = append(report.Outcomes, outcome)
			if err != nil {
				return report, err
			}
		}
	}

	report.Duration = r.now().Sub(start)
	logging.FromContext(ctx, r.logger).Info("translate.run.done",
		"translated", report.Count(StatusTranslated),
		"failed", report.Count(StatusFailed),
		"rejected", report.Count(StatusRejected),
		"planned", report.Count(StatusPlanned),
	)
	return report, nil
}

func (r *Refresher) refreshScope(ctx context.Context, locale site.Locale, source, dict dictionary.Dictionary, outcome Outcome) (Outcome, error) {
	logger := logging.WithPageContext(r.logger, "", locale.Code, outcome.Scope)
	target := interfaces.TranslationTarget{
		Code:           locale.Code,
		DisplayName:    locale.DisplayName,
		HTMLLang:       locale.HTMLLang,
		ProtectedTerms: r.protectedTerms,
	}

	translated, err := r.translator.Translate(ctx, outcome.Scope, maps.Clone(source.Scope(outcome.Scope)), target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			return outcome, ctxErr
		}
		outcome.Status = StatusFailed
		outcome.Err = fmt.Errorf("%w: %s/%s: %v", interfaces.ErrTranslationFailed, locale.Code, outcome.Scope, err)
		logger.Warn("translate.scope.failed", "error", err)
		return outcome, nil
	}

	if err := Check(source.Scope(outcome.Scope), translated, r.protectedTerms); err != nil {
		outcome.Status = StatusRejected
		outcome.Err = err
		logger.Warn("translate.scope.rejected", "error", err)
		return outcome, nil
	}

	previous, hadPrevious := dict[outcome.Scope]
	dict.ReplaceScope(outcome.Scope, translated)
	if err := r.store.Save(ctx, locale.Code, dict); err != nil {
		if hadPrevious {
			dict[outcome.Scope] = previous
		} else {
			delete(dict, outcome.Scope)
		}
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome, err
	}

	outcome.Status = StatusTranslated
	logger.Info("translate.scope.saved", "keys", len(translated))
	return outcome, nil
}

func (r *Refresher) targets(codes []string) ([]site.Locale, error) {
	if len(codes) == 0 {
		return r.registry.TargetLocales(), nil
	}
	locales, err := r.registry.FilterLocales(codes)
	if err != nil {
		return nil, err
	}
	for _, locale := range locales {
		if locale.Code == r.registry.SourceLocale {
			return nil, fmt.Errorf("%w: %s", ErrSourceLocale, locale.Code)
		}
	}
	return locales, nil
}
