package translate

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/goliatone/go-localize/internal/placeholder"
)

// ErrInvalidTranslation is returned by Check for results that would corrupt
// templates.
var ErrInvalidTranslation = errors.New("translate: invalid translation")

var markupPattern = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*`)

// Check validates a translated scope against its source: the key set must
// match exactly, each value must keep its placeholders and markup tags, be
// non-blank, and keep every protected term the source value contains.
func Check(source, translated map[string]string, protectedTerms []string) error {
	if missing, extra := keyDiff(source, translated); len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: key set differs (missing %v, extra %v)", ErrInvalidTranslation, missing, extra)
	}
	for _, key := range slices.Sorted(maps.Keys(source)) {
		want, got := source[key], translated[key]
		if strings.TrimSpace(got) == "" {
			return fmt.Errorf("%w: %s is blank", ErrInvalidTranslation, key)
		}
		if !maps.Equal(placeholder.Set(want), placeholder.Set(got)) {
			return fmt.Errorf("%w: %s changes placeholders", ErrInvalidTranslation, key)
		}
		if !maps.Equal(tagSet(want), tagSet(got)) {
			return fmt.Errorf("%w: %s changes markup", ErrInvalidTranslation, key)
		}
		for _, term := range protectedTerms {
			if term != "" && strings.Contains(want, term) && !strings.Contains(got, term) {
				return fmt.Errorf("%w: %s drops protected term %q", ErrInvalidTranslation, key, term)
			}
		}
	}
	return nil
}

func keyDiff(source, translated map[string]string) (missing, extra []string) {
	for key := range source {
		if _, ok := translated[key]; !ok {
			missing = append(missing, key)
		}
	}
	for key := range translated {
		if _, ok := source[key]; !ok {
			extra = append(extra, key)
		}
	}
	slices.Sort(missing)
	slices.Sort(extra)
	return missing, extra
}

func tagSet(value string) map[string]int {
	matches := markupPattern.FindAllString(value, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]int, len(matches))
	for _, match := range matches {
		out[strings.ToLower(match)]++
	}
	return out
}
