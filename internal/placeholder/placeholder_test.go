package placeholder

import "testing"

func TestParseClassifiesReferences(t *testing.T) {
	cases := []struct {
		body  string
		kind  Kind
		scope string
		key   string
		name  Name
	}{
		{body: "t.home.h1", kind: KindTranslation, scope: "home", key: "h1"},
		{body: "t.common.cta_buy-now", kind: KindTranslation, scope: "common", key: "cta_buy-now"},
		{body: "canonicalUrl", kind: KindStructural, name: CanonicalURL},
		{body: "localePath", kind: KindStructural, name: LocalePath},
		{body: "t.home", kind: KindMalformed},
		{body: "t.home.h1.extra", kind: KindMalformed},
		{body: "pageTitle", kind: KindUnknown, name: "pageTitle"},
	}

	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			ref := Parse(tc.body)
			if ref.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ref.Kind)
			}
			if ref.Scope != tc.scope || ref.Key != tc.key {
				t.Fatalf("expected %s.%s, got %s.%s", tc.scope, tc.key, ref.Scope, ref.Key)
			}
			if ref.Name != tc.name {
				t.Fatalf("expected name %q, got %q", tc.name, ref.Name)
			}
			if ref.Raw != "{{"+tc.body+"}}" {
				t.Fatalf("unexpected raw %q", ref.Raw)
			}
		})
	}
}

func TestScanFindsPlaceholdersInAttributesAndJSON(t *testing.T) {
	text := `<a href="{{localePath}}/guides/" title="{{t.home.link_title}}">` +
		`{"description":"{{t.home.ld1_description}}"}`

	refs := Scan(text)
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d", len(refs))
	}
	if refs[0].Name != LocalePath || refs[1].Key != "link_title" || refs[2].Key != "ld1_description" {
		t.Fatalf("unexpected refs %+v", refs)
	}
	if text[refs[1].Start:refs[1].End] != refs[1].Raw {
		t.Fatalf("offsets do not match raw text")
	}
}

func TestScanTranslationsIgnoresStructural(t *testing.T) {
	refs := ScanTranslations(`<html lang="{{htmlLang}}"><h1>{{t.home.h1}}</h1>{{t.bad}}`)
	if len(refs) != 1 || refs[0].ScopeKey() != "home.h1" {
		t.Fatalf("expected only home.h1, got %+v", refs)
	}
}

func TestFormatters(t *testing.T) {
	if got := Translation("common", "nav_home"); got != "{{t.common.nav_home}}" {
		t.Fatalf("unexpected translation placeholder %q", got)
	}
	if got := Structural(HreflangTags); got != "{{hreflangTags}}" {
		t.Fatalf("unexpected structural placeholder %q", got)
	}
	if !StartsWith("  {{t.home.h1}}") {
		t.Fatal("expected leading placeholder to be detected")
	}
	if StartsWith("Hello {{t.home.h1}}") {
		t.Fatal("expected text with inner placeholder not to start with one")
	}
}

func TestReplaceHonoursSkipAndMisses(t *testing.T) {
	text := `{{t.home.h1}}|{{t.home.missing}}|{{htmlLang}}`
	out := Replace(text, func(offset int) bool {
		return offset > len(text)-len("{{htmlLang}}")-1
	}, func(ref Ref) (string, bool) {
		if ref.Key == "h1" {
			return "Hello", true
		}
		if ref.Kind == KindStructural {
			return "en", true
		}
		return "", false
	})
	if out != `Hello|{{t.home.missing}}|{{htmlLang}}` {
		t.Fatalf("unexpected replacement %q", out)
	}
}

func TestSetCountsOccurrences(t *testing.T) {
	set := Set(`{{localePath}}/a {{localePath}}/b {{t.home.h1}}`)
	if set["{{localePath}}"] != 2 || set["{{t.home.h1}}"] != 1 {
		t.Fatalf("unexpected set %v", set)
	}
	if Set("plain") != nil {
		t.Fatal("expected nil set for text without placeholders")
	}
}
