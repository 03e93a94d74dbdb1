package verify

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
)

const sitemapPath = "sitemap.xml"

type sitemapDocument struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc   string        `xml:"loc"`
	Links []sitemapLink `xml:"http://www.w3.org/1999/xhtml link"`
}

type sitemapLink struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// checkSitemap compares the entry count with pages times locales that have a
// home index (a warning when off) and requires alternates on every entry.
func (v *Verifier) checkSitemap(report *Report) {
	data, err := fs.ReadFile(v.fsys, sitemapPath)
	if err != nil {
		message := "sitemap missing"
		if !errors.Is(err, fs.ErrNotExist) {
			message = fmt.Sprintf("sitemap unreadable: %v", err)
		}
		report.add(Issue{Check: CheckSitemap, Severity: SeverityError, Path: sitemapPath, Message: message})
		return
	}

	var doc sitemapDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		report.add(Issue{Check: CheckSitemap, Severity: SeverityError, Path: sitemapPath,
			Message: fmt.Sprintf("sitemap is not valid xml: %v", err)})
		return
	}

	expected := len(v.registry.SitemapPages()) * v.localesWithIndex()
	if len(doc.URLs) != expected {
		report.add(Issue{Check: CheckSitemap, Severity: SeverityWarning, Path: sitemapPath,
			Message: fmt.Sprintf("sitemap has %d entries, expected %d", len(doc.URLs), expected)})
	}
	for _, entry := range doc.URLs {
		alternates := 0
		for _, link := range entry.Links {
			if link.Rel == "alternate" && link.Hreflang != "" {
				alternates++
			}
		}
		if alternates == 0 {
			report.add(Issue{Check: CheckSitemap, Severity: SeverityError, Path: sitemapPath,
				Message: fmt.Sprintf("sitemap entry %s has no alternate links", entry.Loc)})
		}
	}
}

func (v *Verifier) localesWithIndex() int {
	n := 0
	for _, locale := range v.registry.Locales {
		if _, err := fs.Stat(v.fsys, locale.OutputPath("index.html")); err == nil {
			n++
		}
	}
	return n
}
