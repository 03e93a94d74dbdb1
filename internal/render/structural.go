package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-localize/internal/site"
)

// Alternate is one hreflang alternate of a page.
type Alternate struct {
	Hreflang string
	Href     string
}

// Alternates lists one entry per configured locale followed by the
// x-default entry pointing at the source URL.
func Alternates(registry site.Registry, page site.Page) []Alternate {
	out := make([]Alternate, 0, len(registry.Locales)+1)
	for _, locale := range registry.Locales {
		out = append(out, Alternate{
			Hreflang: hreflang(locale),
			Href:     locale.URL(registry.BaseURL, page.URLPath()),
		})
	}
	source, err := registry.Source()
	if err != nil {
		source = site.Locale{}
	}
	out = append(out, Alternate{
		Hreflang: site.XDefault,
		Href:     source.URL(registry.BaseURL, page.URLPath()),
	})
	return out
}

// HreflangLinks renders the alternate link elements for page.
func HreflangLinks(registry site.Registry, page site.Page) []string {
	alternates := Alternates(registry, page)
	lines := make([]string, 0, len(alternates))
	for _, alt := range alternates {
		lines = append(lines, fmt.Sprintf(`<link rel="alternate" hreflang="%s" href="%s">`, alt.Hreflang, html.EscapeString(alt.Href)))
	}
	return lines
}

func ogAlternates(registry site.Registry, current site.Locale) []string {
	lines := make([]string, 0, len(registry.Locales))
	for _, locale := range registry.Locales {
		if strings.EqualFold(locale.Code, current.Code) || locale.OGLocale == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf(`<meta property="og:locale:alternate" content="%s">`, locale.OGLocale))
	}
	return lines
}

func langSwitcher(registry site.Registry, page site.Page, current site.Locale) []string {
	lines := make([]string, 0, len(registry.Locales)+2)
	lines = append(lines, `<div class="lang-switcher">`)
	for _, locale := range registry.Locales {
		label := strings.TrimSpace(locale.Flag + " " + locale.DisplayName)
		if label == "" {
			label = locale.Code
		}
		attrs := fmt.Sprintf(`href="%s" lang="%s"`, html.EscapeString(locale.PathPrefix+page.URLPath()), locale.HTMLLang)
		if strings.EqualFold(locale.Code, current.Code) {
			attrs += ` class="active" aria-current="page"`
		}
		lines = append(lines, fmt.Sprintf(`  <a %s>%s</a>`, attrs, html.EscapeString(label)))
	}
	lines = append(lines, `</div>`)
	return lines
}

func hreflang(locale site.Locale) string {
	if locale.Hreflang != "" {
		return locale.Hreflang
	}
	return locale.Code
}
