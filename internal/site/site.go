// Package site holds the static registries every stage honours: the ordered
// page list and the locale list with their metadata.
package site

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// SharedScope is the dictionary scope for text reused across pages.
const SharedScope = "common"

// XDefault is the hreflang value pointing at the unprefixed source URL.
const XDefault = "x-default"

var (
	// ErrUnknownPage is returned when a page key is not in the registry.
	ErrUnknownPage = errors.New("site: unknown page")
	// ErrUnknownLocale is returned when a locale code is not in the registry.
	ErrUnknownLocale = errors.New("site: unknown locale")
)

// Role drives sitemap priority and change frequency.
type Role string

const (
	RoleStandard Role = ""
	RoleHome     Role = "home"
	RoleHub      Role = "hub"
	RoleLegal    Role = "legal"
)

// Page identifies one logical page across all locales.
type Page struct {
	Key      string
	Source   string
	Template string
	Output   string
	Role     Role
	// RedirectTo marks a redirect-only page and names the root-relative
	// target rewritten during extraction.
	RedirectTo string
	// NoIndex requires a robots noindex directive on every locale.
	NoIndex bool
	// HreflangExempt skips the hreflang completeness check.
	HreflangExempt bool
}

// IsRedirect reports whether the page only redirects elsewhere.
func (p Page) IsRedirect() bool {
	return strings.TrimSpace(p.RedirectTo) != ""
}

// URLPath returns the root-relative URL of the page in the source locale.
func (p Page) URLPath() string {
	return OutputURLPath(p.Output)
}

// Locale is the static metadata for one locale.
type Locale struct {
	Code        string
	PathPrefix  string
	OGLocale    string
	HTMLLang    string
	Hreflang    string
	DisplayName string
	Flag        string
}

// URL joins base, the locale prefix and a root-relative path.
func (l Locale) URL(base, urlPath string) string {
	return strings.TrimRight(base, "/") + l.PathPrefix + urlPath
}

// OutputPath returns the locale-specific location of a page output.
func (l Locale) OutputPath(output string) string {
	prefix := strings.Trim(l.PathPrefix, "/")
	output = strings.TrimLeft(output, "/")
	if prefix == "" {
		return output
	}
	return path.Join(prefix, output)
}

// OutputURLPath maps an output file path to the URL it is served under:
// index.html is "/", guides/index.html is "/guides/" and about.html is
// "/about.html".
func OutputURLPath(output string) string {
	output = strings.TrimLeft(strings.TrimSpace(output), "/")
	if output == "" || output == "index.html" {
		return "/"
	}
	if path.Base(output) == "index.html" {
		return "/" + path.Dir(output) + "/"
	}
	return "/" + output
}

// Registry groups the page and locale registries.
type Registry struct {
	Pages        []Page
	Locales      []Locale
	SourceLocale string
	BaseURL      string
}

// Page looks up a page by key.
func (r Registry) Page(key string) (Page, error) {
	for _, page := range r.Pages {
		if page.Key == key {
			return page, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %s", ErrUnknownPage, key)
}

// Locale looks up a locale by code.
func (r Registry) Locale(code string) (Locale, error) {
	for _, locale := range r.Locales {
		if strings.EqualFold(locale.Code, code) {
			return locale, nil
		}
	}
	return Locale{}, fmt.Errorf("%w: %s", ErrUnknownLocale, code)
}

// Source returns the source locale metadata.
func (r Registry) Source() (Locale, error) {
	return r.Locale(r.SourceLocale)
}

// TargetLocales returns every locale except the source locale, in registry order.
func (r Registry) TargetLocales() []Locale {
	out := make([]Locale, 0, len(r.Locales))
	for _, locale := range r.Locales {
		if strings.EqualFold(locale.Code, r.SourceLocale) {
			continue
		}
		out = append(out, locale)
	}
	return out
}

// Home returns the home page, falling back to the page whose output is the
// root index.
func (r Registry) Home() (Page, bool) {
	for _, page := range r.Pages {
		if page.Role == RoleHome {
			return page, true
		}
	}
	for _, page := range r.Pages {
		if page.URLPath() == "/" {
			return page, true
		}
	}
	return Page{}, false
}

// SitemapPages returns the pages listed in the sitemap: every page that is
// not a redirect.
func (r Registry) SitemapPages() []Page {
	out := make([]Page, 0, len(r.Pages))
	for _, page := range r.Pages {
		if page.IsRedirect() {
			continue
		}
		out = append(out, page)
	}
	return out
}

// FilterPages narrows the registry to the given keys, preserving registry order.
// An empty filter returns every page.
func (r Registry) FilterPages(keys []string) ([]Page, error) {
	if len(keys) == 0 {
		return append([]Page(nil), r.Pages...), nil
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, err := r.Page(key); err != nil {
			return nil, err
		}
		wanted[key] = struct{}{}
	}
	out := make([]Page, 0, len(keys))
	for _, page := range r.Pages {
		if _, ok := wanted[page.Key]; ok {
			out = append(out, page)
		}
	}
	return out, nil
}

// FilterLocales narrows the registry to the given codes, preserving registry order.
func (r Registry) FilterLocales(codes []string) ([]Locale, error) {
	if len(codes) == 0 {
		return append([]Locale(nil), r.Locales...), nil
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		locale, err := r.Locale(code)
		if err != nil {
			return nil, err
		}
		wanted[locale.Code] = struct{}{}
	}
	out := make([]Locale, 0, len(codes))
	for _, locale := range r.Locales {
		if _, ok := wanted[locale.Code]; ok {
			out = append(out, locale)
		}
	}
	return out, nil
}
