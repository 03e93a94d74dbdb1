package extract

import (
	"regexp"

	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
)

var (
	footerHeadingPattern = regexp.MustCompile(`(?is)<(h[1-6])\b[^>]*>(.*?)</h[1-6]\s*>`)
	rightsPattern        = regexp.MustCompile(`(?i)(©|&copy;|&#169;)([^<]*?)(all rights reserved\.?)`)
)

// footer extracts the closed footer vocabulary into the shared scope:
// classed tagline and disclaimer, column headings, link labels and the
// rights-reserved fragment of the copyright line. Logo fragments stay as
// they are.
func (s *pageState) footer() {
	s.rewriteRegions(htmlscan.Footer, func(inner string, skip func(int) bool) string {
		inner = rewriteClassed(inner, skip, func(_ string, classes []string, value string) (string, bool) {
			key, ok := firstMapped(classes, s.vocab.FooterClasses)
			if !ok || skipCandidate(value) {
				return "", false
			}
			_, core, _ := splitSpace(value)
			return replaceInner(value, s.sharedKey(PassFooter, key, core)), true
		})

		inner = rewriteGroup(inner, footerHeadingPattern, 2, skip, func(groups []string) (string, bool) {
			return s.footerText("footer_heading_", groups[2])
		})

		inner = rewriteGroup(inner, anchorPattern, 2, skip, func(groups []string) (string, bool) {
			if s.isBrandAnchor(groups[1], groups[2]) {
				return "", false
			}
			return s.footerText("footer_link_", groups[2])
		})

		return rewriteGroup(inner, rightsPattern, 3, skip, func(groups []string) (string, bool) {
			return s.sharedKey(PassFooter, "footer_rights", groups[3]), true
		})
	})
}

func (s *pageState) footerText(prefix, inner string) (string, bool) {
	if skipCandidate(inner) {
		return "", false
	}
	_, core, _ := splitSpace(inner)
	text := visibleText(core)
	if s.vocab.isBrand(text) {
		return "", false
	}
	return replaceInner(inner, s.sharedKey(PassFooter, prefix+keyName(text), core)), true
}

func (s *pageState) isBrandAnchor(attrs, inner string) bool {
	if class, ok := findAttribute(parseAttributes(attrs), "class"); ok {
		for _, name := range s.vocab.BrandClasses {
			if htmlscan.HasClass(class.Value, name) {
				return true
			}
		}
	}
	return s.vocab.isBrand(visibleText(inner))
}

// popup extracts the region popup strings into the shared scope.
func (s *pageState) popup() {
	s.rewriteRegions(htmlscan.Popup, func(inner string, skip func(int) bool) string {
		return rewriteClassed(inner, skip, func(_ string, classes []string, value string) (string, bool) {
			key, ok := firstMapped(classes, s.vocab.PopupClasses)
			if !ok || skipCandidate(value) {
				return "", false
			}
			_, core, _ := splitSpace(value)
			return replaceInner(value, s.sharedKey(PassPopup, key, core)), true
		})
	})
}

var linkAttrPattern = regexp.MustCompile(`(?i)\b(href|action)\s*=\s*"(/[^"]*)"`)

// links prefixes root-relative page links with the locale path, in the
// template and in every value this page contributed.
func (s *pageState) links() {
	s.setText(rewriteGroup(s.text, linkAttrPattern, 2, s.opaque, s.localizeLink))
	for _, scope := range s.entries.Scopes() {
		for key, value := range s.entries.Scope(scope) {
			if next := rewriteGroup(value, linkAttrPattern, 2, nil, s.localizeLink); next != value {
				s.entries.Set(scope, key, next)
			}
		}
	}
}

func (s *pageState) localizeLink(groups []string) (string, bool) {
	target := groups[2]
	if !s.vocab.isLocalLink(target) {
		return "", false
	}
	return placeholder.Structural(placeholder.LocalePath) + target, true
}
