package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/goliatone/go-localize/internal/site"
)

const (
	sitemapFileName = "sitemap.xml"
	robotsFileName  = "robots.txt"
)

type sitemapEntry struct {
	Location   string
	LastMod    time.Time
	Priority   string
	ChangeFreq string
	Alternates []Alternate
}

// sitemapPolicy keys priority and change frequency off the page role.
func sitemapPolicy(page site.Page) (priority, changeFreq string) {
	switch {
	case page.Role == site.RoleHome || page.URLPath() == "/":
		return "1.0", "daily"
	case page.Role == site.RoleHub:
		return "0.8", "weekly"
	case page.Role == site.RoleLegal:
		return "0.3", "yearly"
	default:
		return "0.6", "monthly"
	}
}

// sitemapEntries covers every non-redirect page in every locale, in registry
// order, regardless of build filters.
func sitemapEntries(registry site.Registry, generatedAt time.Time) []sitemapEntry {
	pages := registry.SitemapPages()
	entries := make([]sitemapEntry, 0, len(pages)*len(registry.Locales))
	for _, page := range pages {
		priority, changeFreq := sitemapPolicy(page)
		alternates := Alternates(registry, page)
		for _, locale := range registry.Locales {
			entries = append(entries, sitemapEntry{
				Location:   locale.URL(registry.BaseURL, page.URLPath()),
				LastMod:    generatedAt,
				Priority:   priority,
				ChangeFreq: changeFreq,
				Alternates: alternates,
			})
		}
	}
	return entries
}

// Sitemap renders the sitemap document for the full registry.
func Sitemap(registry site.Registry, generatedAt time.Time) string {
	return buildSitemap(sitemapEntries(registry, generatedAt))
}

func buildSitemap(entries []sitemapEntry) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">` + "\n")
	for _, entry := range entries {
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", html.EscapeString(entry.Location)))
		if !entry.LastMod.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format("2006-01-02")))
		}
		builder.WriteString(fmt.Sprintf("    <changefreq>%s</changefreq>\n", entry.ChangeFreq))
		builder.WriteString(fmt.Sprintf("    <priority>%s</priority>\n", entry.Priority))
		for _, alt := range entry.Alternates {
			builder.WriteString(fmt.Sprintf("    <xhtml:link rel=\"alternate\" hreflang=\"%s\" href=\"%s\"/>\n", alt.Hreflang, html.EscapeString(alt.Href)))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}

func buildRobots(baseURL string, includeSitemap bool) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if includeSitemap {
		base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if base == "" {
			base = "http://localhost"
		}
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Sitemap: %s/%s\n", base, sitemapFileName))
	}
	return builder.String()
}
