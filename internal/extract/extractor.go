// Package extract turns a hand-authored page into a locale-agnostic template
// and the source-locale dictionary entries it references.
//
// Passes run in a fixed priority order and each one rewrites the text the
// previous passes left behind: metadata, structural attributes, structured
// data, navigation, body text, footer, region popup and finally internal
// links. Every matcher requires literal content, so running the extractor on
// its own output changes nothing.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/htmlscan"
	"github.com/goliatone/go-localize/internal/placeholder"
	"github.com/goliatone/go-localize/internal/site"
)

// Pass names used in diagnostics.
const (
	PassMetadata   = "metadata"
	PassStructural = "structural"
	PassJSONLD     = "jsonld"
	PassNavigation = "navigation"
	PassBody       = "body"
	PassFooter     = "footer"
	PassPopup      = "popup"
	PassLinks      = "links"
	PassRedirect   = "redirect"
)

// Diagnostic is a non-fatal extraction finding.
type Diagnostic struct {
	Page    string
	Pass    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s]: %s", d.Page, d.Pass, d.Message)
}

// Result is the outcome of extracting one page.
type Result struct {
	Page        string
	Template    string
	Entries     dictionary.Dictionary
	Diagnostics []Diagnostic
}

// Extractor runs the extraction passes with a fixed vocabulary. It holds no
// per-page state and is safe for concurrent use.
type Extractor struct {
	vocab     Vocabulary
	scan      htmlscan.Options
	dataLabel *regexp.Regexp
}

// New builds an extractor.
func New(vocab Vocabulary) *Extractor {
	return &Extractor{
		vocab: vocab,
		scan: htmlscan.Options{
			NavListClass: vocab.NavListClass,
			PopupClass:   vocab.PopupClass,
		},
		dataLabel: dataAttrPattern(vocab.DataLabelAttr),
	}
}

// Extract converts raw page text into a template plus dictionary entries for
// the page scope and the shared scope.
func (e *Extractor) Extract(page site.Page, raw string) Result {
	state := &pageState{
		vocab:     e.vocab,
		scan:      e.scan,
		dataLabel: e.dataLabel,
		page:      page,
		keys:      keyCounter{},
		entries:   dictionary.New(),
	}
	state.setText(raw)

	if page.IsRedirect() {
		state.structural(false)
		state.redirect()
	} else {
		state.metadata()
		state.structural(true)
		state.structuredData()
		state.navigation()
		state.body()
		state.footer()
		state.popup()
		state.links()
	}

	return Result{
		Page:        page.Key,
		Template:    state.text,
		Entries:     state.entries,
		Diagnostics: state.diags,
	}
}

type pageState struct {
	vocab     Vocabulary
	scan      htmlscan.Options
	dataLabel *regexp.Regexp
	page      site.Page
	text      string
	doc       *htmlscan.Document
	keys      keyCounter
	entries   dictionary.Dictionary
	diags     []Diagnostic
}

func (s *pageState) setText(text string) {
	if s.doc != nil && text == s.text {
		return
	}
	s.text = text
	s.doc = htmlscan.Scan(text, s.scan)
}

func (s *pageState) diag(pass, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Page: s.page.Key, Pass: pass, Message: fmt.Sprintf(format, args...)})
}

// pageKey records value under the next key of category in the page scope
// and returns the placeholder.
func (s *pageState) pageKey(category, value string) string {
	key := s.keys.next(category)
	s.entries.Set(s.page.Key, key, value)
	return placeholder.Translation(s.page.Key, key)
}

// sharedKey records value under a fixed shared key. A key already holding a
// different value keeps the first one.
func (s *pageState) sharedKey(pass, key, value string) string {
	if existing, ok := s.entries.Get(site.SharedScope, key); ok && existing != value {
		s.diag(pass, "shared key %q already holds %q; keeping it over %q", key, existing, value)
	} else if !ok {
		s.entries.Set(site.SharedScope, key, value)
	}
	return placeholder.Translation(site.SharedScope, key)
}

func (s *pageState) opaque(offset int) bool {
	return s.doc.Within(offset, htmlscan.Opaque)
}

// edit replaces text[Start:End].
type edit struct {
	Start int
	End   int
	Text  string
}

func applyEdits(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, ed := range edits {
		if ed.Start < last {
			continue
		}
		b.WriteString(text[last:ed.Start])
		b.WriteString(ed.Text)
		last = ed.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// removal deletes text[start:end] together with its line when nothing else
// but whitespace remains on it.
func removal(text string, start, end int) edit {
	lineStart, lineEnd := lineBounds(text, start)
	if end <= lineEnd &&
		strings.TrimSpace(text[lineStart:start]) == "" &&
		strings.TrimSpace(text[end:lineEnd]) == "" {
		if lineEnd < len(text) {
			lineEnd++
		}
		return edit{Start: lineStart, End: lineEnd}
	}
	return edit{Start: start, End: end}
}

// rewriteRegions applies fn to the inner text of every region of kind. fn
// gets a skip func reporting opaque offsets relative to inner.
func (s *pageState) rewriteRegions(kind htmlscan.Kind, fn func(inner string, skip func(int) bool) string) {
	var edits []edit
	for _, region := range s.doc.Find(kind) {
		if s.opaque(region.Start) {
			continue
		}
		inner := region.Inner(s.text)
		base := region.InnerStart
		skip := func(offset int) bool { return s.opaque(base + offset) }
		if next := fn(inner, skip); next != inner {
			edits = append(edits, edit{Start: region.InnerStart, End: region.InnerEnd, Text: next})
		}
	}
	s.setText(applyEdits(s.text, nestedFree(edits)))
}

// nestedFree drops edits enclosed by an earlier edit.
func nestedFree(edits []edit) []edit {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	out := edits[:0]
	end := -1
	for _, ed := range edits {
		if ed.Start < end {
			continue
		}
		out = append(out, ed)
		end = ed.End
	}
	return out
}

// replaceInner swaps the trimmed core of inner for replacement, keeping the
// surrounding whitespace.
func replaceInner(inner, replacement string) string {
	lead, _, trail := splitSpace(inner)
	return lead + replacement + trail
}
