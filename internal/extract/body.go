package extract

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
)

var (
	headingPattern    = regexp.MustCompile(`(?i)<(h[1-4])\b[^>]*>(.*?)</h[1-4]\s*>`)
	paragraphPattern  = regexp.MustCompile(`(?i)<p\b[^>]*>(.*?)</p\s*>`)
	headerCellPattern = regexp.MustCompile(`(?i)<th\b[^>]*>(.*?)</th\s*>`)
)

// bodyMask lists the regions the body pass never reads.
const bodyMask = htmlscan.Opaque | htmlscan.JSONLD | htmlscan.Head | htmlscan.Nav |
	htmlscan.NavList | htmlscan.Footer | htmlscan.Popup

// lineMatcher rewrites one line and reports whether it claimed it. A
// matcher claims a line when it rewrote a candidate or found one that is
// already templated, so the same matcher owns the line on every run.
type lineMatcher func(s *pageState, line string) (string, bool)

// body extracts visible copy line by line. On each line the first matcher
// that claims it wins; later matchers never see that line.
func (s *pageState) body() {
	matchers := []lineMatcher{
		(*pageState).headings,
		(*pageState).paragraphs,
		(*pageState).headerCells,
		(*pageState).semanticElements,
		(*pageState).dataLabels,
	}
	lines := s.doc.Lines()
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
		if line.Kinds.Has(bodyMask) {
			continue
		}
		for _, match := range matchers {
			if next, claimed := match(s, line.Text); claimed {
				out[i] = next
				break
			}
		}
	}
	s.setText(strings.Join(out, "\n"))
}

func (s *pageState) headings(line string) (string, bool) {
	var templated bool
	next := rewriteGroup(line, headingPattern, 2, nil, func(groups []string) (string, bool) {
		return s.bodyText(strings.ToLower(groups[1]), groups[2], &templated)
	})
	return next, templated || next != line
}

func (s *pageState) paragraphs(line string) (string, bool) {
	var templated bool
	next := rewriteGroup(line, paragraphPattern, 1, nil, func(groups []string) (string, bool) {
		return s.bodyText("p", groups[1], &templated)
	})
	return next, templated || next != line
}

func (s *pageState) headerCells(line string) (string, bool) {
	var templated bool
	next := rewriteGroup(line, headerCellPattern, 1, nil, func(groups []string) (string, bool) {
		return s.bodyText("th", groups[1], &templated)
	})
	return next, templated || next != line
}

// semanticElements handles badges, labels, scores and call-to-action
// elements. Known call-to-action texts go to the shared scope.
func (s *pageState) semanticElements(line string) (string, bool) {
	var templated bool
	next := rewriteClassed(line, nil, func(tag string, classes []string, inner string) (string, bool) {
		class, ok := s.semanticClass(classes)
		if !ok {
			return "", false
		}
		if isTemplated(inner) {
			templated = true
			return "", false
		}
		if skipCandidate(inner) {
			return "", false
		}
		_, core, _ := splitSpace(inner)
		if text := visibleText(core); s.vocab.isCTA(text) {
			return replaceInner(inner, s.sharedKey(PassBody, "cta_"+keyName(text), core)), true
		}
		return replaceInner(inner, s.pageKey(tag+"_"+snakeCase(class), core)), true
	})
	return next, templated || next != line
}

func (s *pageState) semanticClass(classes []string) (string, bool) {
	for _, class := range classes {
		if contains(s.vocab.SemanticClasses, class) {
			return class, true
		}
	}
	return "", false
}

func (s *pageState) dataLabels(line string) (string, bool) {
	if s.dataLabel == nil {
		return line, false
	}
	var templated bool
	category := snakeCase(strings.TrimSpace(s.vocab.DataLabelAttr))
	next := rewriteGroup(line, s.dataLabel, 1, nil, func(groups []string) (string, bool) {
		return s.bodyText(category, groups[1], &templated)
	})
	return next, templated || next != line
}

func dataAttrPattern(attr string) *regexp.Regexp {
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|\s)` + regexp.QuoteMeta(attr) + `\s*=\s*"([^"]*)"`)
}

// bodyText applies the skip rules and records a page-scoped value. It sets
// templated when inner already holds a placeholder.
func (s *pageState) bodyText(category, inner string, templated *bool) (string, bool) {
	if isTemplated(inner) {
		*templated = true
		return "", false
	}
	if skipCandidate(inner) {
		return "", false
	}
	_, core, _ := splitSpace(inner)
	return replaceInner(inner, s.pageKey(category, core)), true
}

// isTemplated reports whether inner was produced by an earlier extraction.
func isTemplated(inner string) bool {
	return placeholder.StartsWith(inner)
}
