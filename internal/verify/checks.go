package verify

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/site"
)

const translationOpen = "{{t."

var (
	leakPattern      = regexp.MustCompile(`=\s*"(?:undefined|null|NaN)"|>\s*(?:undefined|null)\s*<|\[object Object\]`)
	htmlTagPattern   = regexp.MustCompile(`(?is)<html\b[^>]*>`)
	linkTagPattern   = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	metaTagPattern   = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
)

func (f renderedFile) issue(check Check, severity Severity, offset int, message string) Issue {
	issue := Issue{
		Check:    check,
		Severity: severity,
		Page:     f.page.Key,
		Locale:   f.locale.Code,
		Path:     f.path,
		Message:  message,
	}
	if offset >= 0 {
		issue.Line = lineAt(f.text, offset)
	}
	return issue
}

func (f renderedFile) opaque(offset int) bool {
	return f.doc.Within(offset, htmlscan.Opaque)
}

// checkPlaceholders reports every translation placeholder left outside
// scripts, styles and comments, well-formed or not.
func (v *Verifier) checkPlaceholders(report *Report, file renderedFile, reasons map[string]render.Reason) {
	text := file.text
	for offset := 0; ; {
		idx := strings.Index(text[offset:], translationOpen)
		if idx < 0 {
			return
		}
		start := offset + idx
		offset = start + len(translationOpen)
		if file.opaque(start) {
			continue
		}
		raw := text[start:offset]
		if end := strings.Index(text[start:], "}}"); end >= 0 && end < 128 {
			raw = text[start : start+end+2]
		}
		message := "unresolved placeholder " + raw
		if reason, ok := reasons[reasonKey(file.page.Key, file.locale.Code, raw)]; ok {
			message += " (" + string(reason) + ")"
		}
		report.add(file.issue(CheckPlaceholders, SeverityError, start, message))
	}
}

func (v *Verifier) checkLeakage(report *Report, file renderedFile) {
	for _, loc := range leakPattern.FindAllStringIndex(file.text, -1) {
		if file.opaque(loc[0]) {
			continue
		}
		report.add(file.issue(CheckLeakage, SeverityError, loc[0],
			fmt.Sprintf("missing-value marker %q", file.text[loc[0]:loc[1]])))
	}
}

func (v *Verifier) checkHTMLLang(report *Report, file renderedFile) {
	loc := htmlTagPattern.FindStringIndex(file.text)
	if loc == nil {
		if file.page.IsRedirect() {
			return
		}
		report.add(file.issue(CheckHTMLLang, SeverityError, -1, "html element missing"))
		return
	}
	attrs := attributes(file.text[loc[0]:loc[1]])
	lang, ok := attrs["lang"]
	switch {
	case !ok:
		report.add(file.issue(CheckHTMLLang, SeverityError, loc[0], "html lang attribute missing"))
	case lang != file.locale.HTMLLang:
		report.add(file.issue(CheckHTMLLang, SeverityError, loc[0],
			fmt.Sprintf("html lang is %q, expected %q", lang, file.locale.HTMLLang)))
	}
}

func (v *Verifier) checkHreflang(report *Report, file renderedFile) {
	if file.page.IsRedirect() || file.page.HreflangExempt {
		return
	}
	counts := map[string]int{}
	for _, loc := range linkTagPattern.FindAllStringIndex(file.text, -1) {
		if file.opaque(loc[0]) {
			continue
		}
		attrs := attributes(file.text[loc[0]:loc[1]])
		if !strings.EqualFold(attrs["rel"], "alternate") {
			continue
		}
		if value, ok := attrs["hreflang"]; ok {
			counts[strings.ToLower(value)]++
		}
	}

	for _, alt := range render.Alternates(v.registry, file.page) {
		got := counts[strings.ToLower(alt.Hreflang)]
		if alt.Hreflang == site.XDefault {
			if got != 1 {
				report.add(file.issue(CheckHreflang, SeverityError, -1,
					fmt.Sprintf("expected exactly one x-default alternate, found %d", got)))
			}
			continue
		}
		if got == 0 {
			report.add(file.issue(CheckHreflang, SeverityError, -1,
				fmt.Sprintf("missing alternate link for %s", alt.Hreflang)))
		}
	}
}

func (v *Verifier) checkNoIndex(report *Report, file renderedFile) {
	if !file.page.NoIndex {
		return
	}
	for _, loc := range metaTagPattern.FindAllStringIndex(file.text, -1) {
		attrs := attributes(file.text[loc[0]:loc[1]])
		if !strings.EqualFold(attrs["name"], "robots") {
			continue
		}
		if strings.Contains(strings.ToLower(attrs["content"]), "noindex") {
			return
		}
	}
	report.add(file.issue(CheckNoIndex, SeverityError, -1, "robots noindex directive missing"))
}

// attributes returns the attributes of a single tag keyed by lower-cased
// name. Quoted, single-quoted and bare values are all read; the first
// occurrence of a name wins.
func attributes(tag string) map[string]string {
	out := map[string]string{}
	z := html.NewTokenizer(strings.NewReader(tag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return out
	}
	_, more := z.TagName()
	for more {
		var key, value []byte
		key, value, more = z.TagAttr()
		if _, ok := out[string(key)]; !ok && len(key) > 0 {
			out[string(key)] = string(value)
		}
	}
	return out
}
