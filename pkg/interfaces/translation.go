package interfaces

import (
	"context"
	"errors"
)

// ErrTranslationFailed marks a collaborator failure for a single scope.
var ErrTranslationFailed = errors.New("translation failed")

// TranslationTarget describes the locale a scope is translated into.
type TranslationTarget struct {
	Code        string
	DisplayName string
	HTMLLang    string
	// ProtectedTerms must appear verbatim in the translated value whenever
	// the source value contains them.
	ProtectedTerms []string
}

// Translator fills non-source dictionaries one scope at a time.
//
// Implementations must return exactly the key set of source, keep markup
// tags and placeholder syntax verbatim, and leave protected terms
// untranslated. A returned error only affects the scope being translated.
type Translator interface {
	Translate(ctx context.Context, scope string, source map[string]string, target TranslationTarget) (map[string]string, error)
}

// TranslatorFunc adapts a plain function to the Translator contract.
type TranslatorFunc func(ctx context.Context, scope string, source map[string]string, target TranslationTarget) (map[string]string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, scope string, source map[string]string, target TranslationTarget) (map[string]string, error) {
	return f(ctx, scope, source, target)
}
