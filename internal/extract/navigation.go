package extract

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
)

var anchorPattern = regexp.MustCompile(`(?is)<a\b([^>]*)>(.*?)</a\s*>`)

// navigation maps known labels inside the navigation link list to shared
// keys and appends the language switcher to the enclosing nav once.
func (s *pageState) navigation() {
	s.rewriteRegions(htmlscan.NavList, func(inner string, skip func(int) bool) string {
		return rewriteGroup(inner, anchorPattern, 2, skip, func(groups []string) (string, bool) {
			label := groups[2]
			if placeholder.StartsWith(label) {
				return "", false
			}
			key, ok := s.navKey(visibleText(label))
			if !ok {
				return "", false
			}
			_, core, _ := splitSpace(label)
			return replaceInner(label, s.sharedKey(PassNavigation, key, core)), true
		})
	})
	s.insertLangSwitcher()
}

func (s *pageState) navKey(label string) (string, bool) {
	if key, ok := s.vocab.NavLabels[label]; ok {
		return key, true
	}
	for candidate, key := range s.vocab.NavLabels {
		if strings.EqualFold(candidate, label) {
			return key, true
		}
	}
	return "", false
}

func (s *pageState) insertLangSwitcher() {
	block := placeholder.Structural(placeholder.LangSwitcher)
	if strings.Contains(s.text, block) {
		return
	}
	navs := s.doc.Find(htmlscan.Nav)
	if len(navs) == 0 {
		return
	}
	target := navs[0]
	if lists := s.doc.Find(htmlscan.NavList); len(lists) > 0 {
		for _, nav := range navs {
			if nav.Start <= lists[0].Start && nav.End >= lists[0].End {
				target = nav
				break
			}
		}
	}
	s.setText(insertBeforeLine(s.text, target.InnerEnd, block))
}
