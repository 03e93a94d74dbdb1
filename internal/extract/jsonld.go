package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-localize/internal/htmlscan"
)

// structuredData extracts prose fields from every JSON-LD block. Keys are
// numbered per block occurrence (ld1_description, ld2_headline, ...). A block
// that does not parse is reported and left untouched.
func (s *pageState) structuredData() {
	var edits []edit
	for i, region := range s.doc.Find(htmlscan.JSONLD) {
		inner := region.Inner(s.text)
		if strings.TrimSpace(inner) == "" {
			continue
		}
		root, err := parseJSON(inner)
		if err != nil {
			s.diag(PassJSONLD, "block %d: invalid JSON: %v", i+1, err)
			continue
		}
		walker := &ldWalker{state: s, vocab: s.vocab, block: i + 1}
		walker.visit("", root, nil)
		if !walker.changed {
			continue
		}
		edits = append(edits, edit{
			Start: region.InnerStart,
			End:   region.InnerEnd,
			Text:  reencode(inner, root, s.text, region.InnerStart),
		})
	}
	s.setText(applyEdits(s.text, edits))
}

type ldWalker struct {
	state   *pageState
	vocab   Vocabulary
	block   int
	changed bool
}

// visit walks value recursively. field is the property holding value and
// owner the @type list of the enclosing object.
func (w *ldWalker) visit(field string, value *jsonValue, owner []string) {
	switch value.kind {
	case jsonObject:
		types := value.types()
		for i, key := range value.keys {
			w.visit(key, value.items[i], types)
		}
	case jsonArray:
		for _, item := range value.items {
			w.visit(field, item, owner)
		}
	case jsonString:
		if field == "" || !w.vocab.isTextualField(field) {
			return
		}
		if w.vocab.isNameField(field) && w.vocab.isNonEditorial(owner) {
			return
		}
		if skipStructuredValue(value.text) {
			return
		}
		category := fmt.Sprintf("ld%d_%s", w.block, snakeCase(field))
		value.text = w.state.pageKey(category, value.text)
		w.changed = true
	}
}

type jsonKind int

const (
	jsonObject jsonKind = iota
	jsonArray
	jsonString
	jsonLiteral
)

// jsonValue is an order-preserving JSON tree. Objects keep keys in source
// order so a rewritten block diffs cleanly against the original.
type jsonValue struct {
	kind  jsonKind
	keys  []string
	items []*jsonValue
	text  string
}

func (v *jsonValue) types() []string {
	for i, key := range v.keys {
		if key != "@type" {
			continue
		}
		item := v.items[i]
		switch item.kind {
		case jsonString:
			return []string{item.text}
		case jsonArray:
			var out []string
			for _, entry := range item.items {
				if entry.kind == jsonString {
					out = append(out, entry.text)
				}
			}
			return out
		}
	}
	return nil
}

var errTrailingData = errors.New("trailing data after JSON value")

func parseJSON(src string) (*jsonValue, error) {
	decoder := json.NewDecoder(strings.NewReader(src))
	decoder.UseNumber()
	value, err := readJSON(decoder)
	if err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return value, nil
}

func readJSON(decoder *json.Decoder) (*jsonValue, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	switch tok := token.(type) {
	case json.Delim:
		switch tok {
		case '{':
			value := &jsonValue{kind: jsonObject}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				item, err := readJSON(decoder)
				if err != nil {
					return nil, err
				}
				value.keys = append(value.keys, key)
				value.items = append(value.items, item)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return value, nil
		case '[':
			value := &jsonValue{kind: jsonArray}
			for decoder.More() {
				item, err := readJSON(decoder)
				if err != nil {
					return nil, err
				}
				value.items = append(value.items, item)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return value, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", tok)
	case string:
		return &jsonValue{kind: jsonString, text: tok}, nil
	case json.Number:
		return &jsonValue{kind: jsonLiteral, text: tok.String()}, nil
	case bool:
		if tok {
			return &jsonValue{kind: jsonLiteral, text: "true"}, nil
		}
		return &jsonValue{kind: jsonLiteral, text: "false"}, nil
	case nil:
		return &jsonValue{kind: jsonLiteral, text: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", token)
}

// reencode serialises root in place of inner. Multi-line blocks are indented
// from the column the JSON started at; single-line blocks stay compact.
func reencode(inner string, root *jsonValue, text string, innerStart int) string {
	lead, _, trail := splitSpace(inner)
	pretty := strings.Contains(strings.TrimSpace(inner), "\n")
	prefix := ""
	if pretty {
		if i := strings.LastIndexByte(lead, '\n'); i >= 0 {
			prefix = lead[i+1:]
		} else {
			start, end := lineBounds(text, innerStart)
			prefix = indentation(text[start:end])
		}
	}
	var buf bytes.Buffer
	writeJSON(&buf, root, pretty, prefix, "  ")
	return lead + buf.String() + trail
}

func writeJSON(buf *bytes.Buffer, value *jsonValue, pretty bool, prefix, indent string) {
	switch value.kind {
	case jsonLiteral:
		buf.WriteString(value.text)
	case jsonString:
		buf.WriteString(quoteJSON(value.text))
	case jsonObject, jsonArray:
		openDelim, closeDelim := byte('{'), byte('}')
		if value.kind == jsonArray {
			openDelim, closeDelim = '[', ']'
		}
		buf.WriteByte(openDelim)
		if len(value.items) == 0 {
			buf.WriteByte(closeDelim)
			return
		}
		inner := prefix + indent
		for i, item := range value.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if pretty {
				buf.WriteByte('\n')
				buf.WriteString(inner)
			}
			if value.kind == jsonObject {
				buf.WriteString(quoteJSON(value.keys[i]))
				buf.WriteByte(':')
				if pretty {
					buf.WriteByte(' ')
				}
			}
			writeJSON(buf, item, pretty, inner, indent)
		}
		if pretty {
			buf.WriteByte('\n')
			buf.WriteString(prefix)
		}
		buf.WriteByte(closeDelim)
	}
}

// quoteJSON encodes s as a JSON string without HTML escaping, except that
// "</" becomes "<\/" so the block stays inside its script element.
func quoteJSON(s string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		return `""`
	}
	return strings.ReplaceAll(strings.TrimSuffix(buf.String(), "\n"), "</", `<\/`)
}
