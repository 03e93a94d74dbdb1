package runtimeconfig

import (
	"maps"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/goliatone/go-localize/internal/extract"
	"github.com/goliatone/go-localize/internal/site"
)

// Registry converts the page and locale entries. Call Validate first: an
// unknown role maps to the standard role here.
func (cfg Config) Registry() site.Registry {
	reg := site.Registry{
		BaseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		SourceLocale: strings.TrimSpace(cfg.SourceLocale),
		Locales:      make([]site.Locale, 0, len(cfg.Locales)),
		Pages:        make([]site.Page, 0, len(cfg.Pages)),
	}
	for _, locale := range cfg.Locales {
		reg.Locales = append(reg.Locales, locale.toSite())
	}
	for _, page := range cfg.Pages {
		reg.Pages = append(reg.Pages, page.toSite())
	}
	return reg
}

func (l LocaleConfig) toSite() site.Locale {
	out := site.Locale{
		Code:        strings.TrimSpace(l.Code),
		PathPrefix:  strings.TrimRight(strings.TrimSpace(l.PathPrefix), "/"),
		OGLocale:    strings.TrimSpace(l.OGLocale),
		HTMLLang:    strings.TrimSpace(l.HTMLLang),
		Hreflang:    strings.TrimSpace(l.Hreflang),
		DisplayName: strings.TrimSpace(l.DisplayName),
		Flag:        strings.TrimSpace(l.Flag),
	}
	if out.Hreflang == "" {
		out.Hreflang = canonicalTag(out.HTMLLang)
	}
	if out.DisplayName == "" {
		out.DisplayName = out.Code
	}
	return out
}

// canonicalTag returns the BCP 47 canonical form of tag, or tag unchanged
// when it does not parse.
func canonicalTag(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return parsed.String()
}

func (p PageConfig) toSite() site.Page {
	role, _ := parseRole(p.Role)
	out := site.Page{
		Key:            strings.TrimSpace(p.Key),
		Source:         strings.TrimSpace(p.Source),
		Template:       strings.TrimSpace(p.Template),
		Output:         strings.TrimLeft(strings.TrimSpace(p.Output), "/"),
		Role:           role,
		RedirectTo:     strings.TrimSpace(p.RedirectTo),
		NoIndex:        p.NoIndex,
		HreflangExempt: p.HreflangExempt,
	}
	if out.Source == "" {
		out.Source = out.Output
	}
	if out.Template == "" {
		out.Template = out.Output
	}
	return out
}

// Vocabulary layers the extraction overrides on the built-in word lists.
func (cfg Config) Vocabulary() extract.Vocabulary {
	vocab := extract.DefaultVocabulary()
	ext := cfg.Extraction
	if ext.NavListClass != "" {
		vocab.NavListClass = ext.NavListClass
	}
	if len(ext.NavLabels) > 0 {
		vocab.NavLabels = maps.Clone(ext.NavLabels)
	}
	vocab.CTALabels = override(vocab.CTALabels, ext.CTALabels)
	vocab.SemanticClasses = override(vocab.SemanticClasses, ext.SemanticClasses)
	if ext.DataLabelAttr != "" {
		vocab.DataLabelAttr = ext.DataLabelAttr
	}
	vocab.BrandNames = override(vocab.BrandNames, ext.BrandNames)
	vocab.BrandClasses = override(vocab.BrandClasses, ext.BrandClasses)
	if len(ext.FooterClasses) > 0 {
		vocab.FooterClasses = maps.Clone(ext.FooterClasses)
	}
	if ext.PopupClass != "" {
		vocab.PopupClass = ext.PopupClass
	}
	if len(ext.PopupClasses) > 0 {
		vocab.PopupClasses = maps.Clone(ext.PopupClasses)
	}
	vocab.TextualFields = override(vocab.TextualFields, ext.TextualFields)
	vocab.NonEditorialTypes = override(vocab.NonEditorialTypes, ext.NonEditorialTypes)
	vocab.NameFields = override(vocab.NameFields, ext.NameFields)
	vocab.AssetExtensions = override(vocab.AssetExtensions, ext.AssetExtensions)
	vocab.ReservedDirs = override(vocab.ReservedDirs, ext.ReservedDirs)
	return vocab
}

// ProtectedTerms merges the configured protected terms with the brand names
// extraction leaves untranslated.
func (cfg Config) ProtectedTerms() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, term := range append(append([]string(nil), cfg.Translation.ProtectedTerms...), cfg.Vocabulary().BrandNames...) {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// Path joins rel onto the configured root.
func (cfg Config) Path(rel string) string {
	root := cfg.Paths.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

func override(defaults, values []string) []string {
	if len(values) == 0 {
		return defaults
	}
	return append([]string(nil), values...)
}
