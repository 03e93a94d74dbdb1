// Package htmlscan locates the regions of an HTML page that extraction,
// rendering and verification treat differently: executable scripts, styles
// and comments are opaque; JSON-LD blocks hold structured data; head, nav,
// the navigation link list, footer and the region popup scope specific
// extraction passes.
//
// The scanner walks tokens from golang.org/x/net/html and records byte
// ranges against the original source, so callers can rewrite text with plain
// string operations and rescan afterwards.
package htmlscan

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Kind is a bit set of region kinds.
type Kind uint16

const (
	Script Kind = 1 << iota
	JSONLD
	Style
	Comment
	Head
	Nav
	NavList
	Footer
	Popup
)

// Opaque regions are never scanned for text nor resolved for placeholders.
const Opaque = Script | Style | Comment

// Has reports whether any bit of mask is set on k.
func (k Kind) Has(mask Kind) bool {
	return k&mask != 0
}

// Region is a byte range of the source. InnerStart/InnerEnd exclude the
// opening and closing tags; for comments they equal Start/End.
type Region struct {
	Kind       Kind
	Start      int
	End        int
	InnerStart int
	InnerEnd   int
}

// Inner returns the region's content without its enclosing tags.
func (r Region) Inner(src string) string {
	return src[r.InnerStart:r.InnerEnd]
}

// Contains reports whether offset falls inside the region.
func (r Region) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Options names the CSS classes that mark the navigation link list and the
// region popup.
type Options struct {
	NavListClass string
	PopupClass   string
}

// Line is one source line with the kinds of every region it overlaps.
type Line struct {
	Text  string
	Start int
	End   int
	Kinds Kind
}

// Document is the scan result for one source text.
type Document struct {
	Source  string
	Regions []Region
}

type openElement struct {
	kind       Kind
	tag        string
	start      int
	innerStart int
	depth      int
}

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "source": {}, "track": {}, "wbr": {},
}

// Scan tokenizes src and returns its regions.
func Scan(src string, opts Options) *Document {
	doc := &Document{Source: src}
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		offset  int
		open    []*openElement
		rawOpen *openElement
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.CommentToken:
			doc.Regions = append(doc.Regions, Region{
				Kind: Comment, Start: start, End: offset, InnerStart: start, InnerEnd: offset,
			})
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			attrs := readAttrs(z, hasAttr)

			if tag == "script" || tag == "style" {
				kind := Style
				if tag == "script" {
					kind = Script
					if strings.EqualFold(strings.TrimSpace(attrs["type"]), "application/ld+json") {
						kind = JSONLD
					}
				}
				rawOpen = &openElement{kind: kind, tag: tag, start: start, innerStart: offset}
				continue
			}

			for _, el := range open {
				if el.tag == tag {
					el.depth++
				}
			}
			if _, void := voidElements[tag]; void {
				continue
			}
			if kind := classify(tag, attrs, opts); kind != 0 {
				open = append(open, &openElement{kind: kind, tag: tag, start: start, innerStart: offset, depth: 1})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if rawOpen != nil && rawOpen.tag == tag {
				doc.Regions = append(doc.Regions, Region{
					Kind: rawOpen.kind, Start: rawOpen.start, End: offset,
					InnerStart: rawOpen.innerStart, InnerEnd: start,
				})
				rawOpen = nil
				continue
			}
			remaining := open[:0]
			for _, el := range open {
				if el.tag == tag {
					el.depth--
					if el.depth == 0 {
						doc.Regions = append(doc.Regions, Region{
							Kind: el.kind, Start: el.start, End: offset,
							InnerStart: el.innerStart, InnerEnd: start,
						})
						continue
					}
				}
				remaining = append(remaining, el)
			}
			open = remaining
		}
	}

	// Unterminated elements run to the end of the document.
	if rawOpen != nil {
		doc.Regions = append(doc.Regions, Region{
			Kind: rawOpen.kind, Start: rawOpen.start, End: len(src),
			InnerStart: rawOpen.innerStart, InnerEnd: len(src),
		})
	}
	for _, el := range open {
		doc.Regions = append(doc.Regions, Region{
			Kind: el.kind, Start: el.start, End: len(src),
			InnerStart: el.innerStart, InnerEnd: len(src),
		})
	}

	sort.SliceStable(doc.Regions, func(i, j int) bool {
		return doc.Regions[i].Start < doc.Regions[j].Start
	})
	return doc
}

func readAttrs(z *html.Tokenizer, hasAttr bool) map[string]string {
	if !hasAttr {
		return nil
	}
	attrs := map[string]string{}
	for {
		key, val, more := z.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			break
		}
	}
	return attrs
}

func classify(tag string, attrs map[string]string, opts Options) Kind {
	var kind Kind
	switch tag {
	case "head":
		kind |= Head
	case "nav":
		kind |= Nav
	case "footer":
		kind |= Footer
	}
	if class := attrs["class"]; class != "" {
		if HasClass(class, opts.NavListClass) {
			kind |= NavList
		}
		if HasClass(class, opts.PopupClass) {
			kind |= Popup
		}
	}
	return kind
}

// HasClass reports whether the space separated class list contains name.
func HasClass(classList, name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, class := range strings.Fields(classList) {
		if class == name {
			return true
		}
	}
	return false
}

// KindAt returns the union of kinds of every region containing offset.
func (d *Document) KindAt(offset int) Kind {
	var kind Kind
	for _, region := range d.Regions {
		if region.Start > offset {
			break
		}
		if region.Contains(offset) {
			kind |= region.Kind
		}
	}
	return kind
}

// Within reports whether offset lies inside a region of any kind in mask.
func (d *Document) Within(offset int, mask Kind) bool {
	return d.KindAt(offset).Has(mask)
}

// Find returns the regions having any kind in mask, in document order.
func (d *Document) Find(mask Kind) []Region {
	var out []Region
	for _, region := range d.Regions {
		if region.Kind.Has(mask) {
			out = append(out, region)
		}
	}
	return out
}

// Lines splits the source on newlines and tags each line with the kinds of
// the regions it overlaps.
func (d *Document) Lines() []Line {
	src := d.Source
	lines := make([]Line, 0, strings.Count(src, "\n")+1)
	start := 0
	for {
		end := strings.IndexByte(src[start:], '\n')
		if end < 0 {
			lines = append(lines, d.line(start, len(src)))
			break
		}
		lines = append(lines, d.line(start, start+end))
		start += end + 1
	}
	return lines
}

func (d *Document) line(start, end int) Line {
	ln := Line{Text: d.Source[start:end], Start: start, End: end}
	for _, region := range d.Regions {
		if region.Start > end {
			break
		}
		if region.Start <= end && region.End > start {
			ln.Kinds |= region.Kind
		}
	}
	return ln
}
