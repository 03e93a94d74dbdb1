package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-localize/internal/dictionary"
	"github.com/goliatone/go-localize/internal/render"
	"github.com/goliatone/go-localize/internal/site"
)

func testRegistry() site.Registry {
	return site.Registry{
		BaseURL:      "https://example.com",
		SourceLocale: "en",
		Locales: []site.Locale{
			{Code: "en", PathPrefix: "", HTMLLang: "en", Hreflang: "en", OGLocale: "en_US"},
			{Code: "de", PathPrefix: "/de", HTMLLang: "de", Hreflang: "de", OGLocale: "de_DE"},
			{Code: "no", PathPrefix: "/no", HTMLLang: "nb", Hreflang: "nb", OGLocale: "nb_NO"},
		},
		Pages: []site.Page{
			{Key: "home", Output: "index.html", Role: site.RoleHome},
			{Key: "guides", Output: "guides/index.html", Role: site.RoleHub},
			{Key: "privacy", Output: "privacy.html", Role: site.RoleLegal, NoIndex: true},
			{Key: "deals", Output: "deals.html", RedirectTo: "/guides/"},
		},
	}
}

const pageHead = `<!DOCTYPE html>
<html lang="{{htmlLang}}">
<head>
  <link rel="canonical" href="{{canonicalUrl}}">
  {{hreflangTags}}
  <link rel="stylesheet" href="/assets/site.css">
`

var testTemplates = map[string]string{
	"home": pageHead + `</head>
<body>
  <a href="{{localePath}}/guides/">{{t.common.nav_guides}}</a>
  <a href="{{localePath}}/privacy.html#top">{{t.common.nav_privacy}}</a>
  <h1>{{t.home.h1}}</h1>
  <p>{{t.home.p_1}}</p>
  <script>var draft = "{{t.home.draft}}";</script>
</body>
</html>
`,
	"guides": pageHead + `</head>
<body>
  <a href="{{localePath}}/">{{t.common.nav_home}}</a>
  <h1>{{t.guides.h1}}</h1>
</body>
</html>
`,
	"privacy": pageHead + `  <meta name="robots" content="noindex, follow">
</head>
<body>
  <h1>{{t.privacy.h1}}</h1>
</body>
</html>
`,
	"deals": `<meta http-equiv="refresh" content="0; url={{localePath}}/guides/">
<a href="{{localePath}}/guides/">Continue</a>
`,
}

func sourceDictionary() dictionary.Dictionary {
	return dictionary.Dictionary{
		"home":    {"h1": "Welcome", "p_1": "Hello there."},
		"guides":  {"h1": "Guides"},
		"privacy": {"h1": "Privacy"},
		"common":  {"nav_home": "Home", "nav_guides": "Guides", "nav_privacy": "Privacy"},
	}
}

// renderTree renders every page and locale into a MapFS, returning the
// render diagnostics alongside.
func renderTree(t *testing.T, reg site.Registry, store *dictionary.Store) (fstest.MapFS, []render.Unresolved) {
	t.Helper()
	engine := render.NewEngine(reg)
	tree := fstest.MapFS{}
	var unresolved []render.Unresolved
	for _, page := range reg.Pages {
		template, ok := testTemplates[page.Key]
		if !ok {
			t.Fatalf("no template for %s", page.Key)
		}
		for _, locale := range reg.Locales {
			out, misses := engine.Render(template, page, locale, store)
			tree[locale.OutputPath(page.Output)] = &fstest.MapFile{Data: []byte(out)}
			unresolved = append(unresolved, misses...)
		}
	}
	tree["sitemap.xml"] = &fstest.MapFile{Data: []byte(render.Sitemap(reg, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))}
	return tree, unresolved
}

func completeStore() *dictionary.Store {
	en := sourceDictionary()
	return dictionary.NewStore("en", map[string]dictionary.Dictionary{
		"en": en,
		"de": en.Clone(),
		"no": en.Clone(),
	})
}

func runVerify(t *testing.T, reg site.Registry, tree fstest.MapFS, opts Options) *Report {
	t.Helper()
	report, err := New(reg, tree, nil).Verify(context.Background(), opts)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return report
}

func TestVerifyCompleteTreePasses(t *testing.T) {
	reg := testRegistry()
	tree, unresolved := renderTree(t, reg, completeStore())
	if len(unresolved) != 0 {
		t.Fatalf("expected complete render, got %v", unresolved)
	}

	report := runVerify(t, reg, tree, Options{})
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
	if !report.Passed() || report.Err() != nil {
		t.Fatalf("expected report to pass, got %v", report.Err())
	}
	if report.Files != 12 {
		t.Fatalf("expected 12 rendered files, got %d", report.Files)
	}
}

func TestVerifyReportsMissingLocaleScope(t *testing.T) {
	reg := testRegistry()
	en := sourceDictionary()
	no := en.Clone()
	delete(no, "home")
	store := dictionary.NewStore("en", map[string]dictionary.Dictionary{"en": en, "de": en.Clone(), "no": no})

	tree, unresolved := renderTree(t, reg, store)
	report := runVerify(t, reg, tree, Options{Unresolved: unresolved})

	errs := report.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected exactly 2 errors, got %v", errs)
	}
	for _, issue := range errs {
		if issue.Check != CheckPlaceholders || issue.Path != "no/index.html" {
			t.Fatalf("unexpected issue %v", issue)
		}
		if !strings.HasSuffix(issue.Message, "(missing_translation)") {
			t.Fatalf("expected reason in message, got %q", issue.Message)
		}
	}
	if !strings.Contains(errs[0].Message, "{{t.home.h1}}") || !strings.Contains(errs[1].Message, "{{t.home.p_1}}") {
		t.Fatalf("expected h1 then p_1, got %v", errs)
	}
	if err := report.Err(); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyDetectsBrokenPages(t *testing.T) {
	reg := testRegistry()
	tree, _ := renderTree(t, reg, completeStore())

	home := string(tree["de/index.html"].Data)
	home = strings.Replace(home, `<html lang="de">`, `<html lang="fr">`, 1)
	var kept []string
	for _, line := range strings.Split(home, "\n") {
		if strings.Contains(line, `hreflang="x-default"`) {
			continue
		}
		kept = append(kept, line)
	}
	home = strings.Join(kept, "\n")
	home = strings.Replace(home, "</body>", "<img src=\"/a.png\" alt=\"undefined\">\n<a href=\"/nope/\">x</a>\n</body>", 1)
	tree["de/index.html"] = &fstest.MapFile{Data: []byte(home)}

	privacy := strings.Replace(string(tree["de/privacy.html"].Data), `<meta name="robots" content="noindex, follow">`, "", 1)
	tree["de/privacy.html"] = &fstest.MapFile{Data: []byte(privacy)}

	report := runVerify(t, reg, tree, Options{})
	got := map[Check]int{}
	for _, summary := range report.Summary() {
		got[summary.Check] = summary.Errors*10 + summary.Warnings
	}
	want := map[Check]int{
		CheckHTMLLang: 10,
		CheckHreflang: 10,
		CheckLeakage:  10,
		CheckNoIndex:  10,
		CheckLinks:    1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}
}

func TestVerifyReadsUnquotedAttributes(t *testing.T) {
	reg := testRegistry()
	tree, _ := renderTree(t, reg, completeStore())

	home := string(tree["de/index.html"].Data)
	home = strings.Replace(home, `<html lang="de">`, `<html lang=de>`, 1)
	home = strings.ReplaceAll(home, `rel="alternate"`, `rel='alternate'`)
	for _, code := range []string{"en", "de", "nb", "x-default"} {
		home = strings.ReplaceAll(home, `hreflang="`+code+`"`, `hreflang=`+code)
	}
	tree["de/index.html"] = &fstest.MapFile{Data: []byte(home)}

	privacy := strings.Replace(string(tree["de/privacy.html"].Data),
		`<meta name="robots" content="noindex, follow">`, `<meta name=robots content='noindex, follow'>`, 1)
	tree["de/privacy.html"] = &fstest.MapFile{Data: []byte(privacy)}

	report := runVerify(t, reg, tree, Options{})
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
}

func TestAttributes(t *testing.T) {
	got := attributes(`<link REL=alternate hreflang='de' href="https://example.com/de/?a=1&amp;b=2" rel="ignored">`)
	want := map[string]string{
		"rel":      "alternate",
		"hreflang": "de",
		"href":     "https://example.com/de/?a=1&b=2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected attributes (-want +got):\n%s", diff)
	}
	if got := attributes("not a tag"); len(got) != 0 {
		t.Fatalf("expected no attributes, got %v", got)
	}
}

func TestVerifyCompletenessAndSitemapCount(t *testing.T) {
	reg := testRegistry()
	tree, _ := renderTree(t, reg, completeStore())
	delete(tree, "de/guides/index.html")
	delete(tree, "no/index.html")

	report := runVerify(t, reg, tree, Options{})
	if got := report.Count(CheckCompleteness); got != 2 {
		t.Fatalf("expected 2 completeness errors, got %d: %v", got, report.Issues)
	}
	sitemap := report.ForPath("sitemap.xml")
	if len(sitemap) != 1 || sitemap[0].Severity != SeverityWarning {
		t.Fatalf("expected one sitemap count warning, got %v", sitemap)
	}
	if !strings.Contains(sitemap[0].Message, "has 9 entries, expected 6") {
		t.Fatalf("unexpected sitemap message %q", sitemap[0].Message)
	}
	for _, issue := range report.Issues {
		if issue.Check == CheckLinks && issue.Severity != SeverityWarning {
			t.Fatalf("expected link failures to be warnings, got %v", issue)
		}
	}
}

func TestVerifySitemapErrors(t *testing.T) {
	reg := testRegistry()

	t.Run("missing", func(t *testing.T) {
		tree, _ := renderTree(t, reg, completeStore())
		delete(tree, "sitemap.xml")
		report := runVerify(t, reg, tree, Options{})
		if got := len(report.Errors()); got != 1 || report.Errors()[0].Check != CheckSitemap {
			t.Fatalf("expected one sitemap error, got %v", report.Errors())
		}
	})

	t.Run("partial alternates are accepted", func(t *testing.T) {
		tree, _ := renderTree(t, reg, completeStore())
		var kept []string
		for _, line := range strings.Split(string(tree["sitemap.xml"].Data), "\n") {
			if strings.Contains(line, "xhtml:link") && strings.Contains(line, `href="https://example.com/de/privacy.html"`) {
				continue
			}
			kept = append(kept, line)
		}
		tree["sitemap.xml"] = &fstest.MapFile{Data: []byte(strings.Join(kept, "\n"))}
		report := runVerify(t, reg, tree, Options{})
		if got := report.Count(CheckSitemap); got != 0 {
			t.Fatalf("expected entries to keep other alternates, got %v", report.Issues)
		}
	})

	t.Run("invalid xml", func(t *testing.T) {
		tree, _ := renderTree(t, reg, completeStore())
		tree["sitemap.xml"] = &fstest.MapFile{Data: []byte("<urlset><url>")}
		report := runVerify(t, reg, tree, Options{})
		if got := report.Count(CheckSitemap); got != 1 {
			t.Fatalf("expected one sitemap error, got %v", report.Issues)
		}
	})

	t.Run("no alternates at all", func(t *testing.T) {
		tree, _ := renderTree(t, reg, completeStore())
		doc := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
</urlset>
`
		tree["sitemap.xml"] = &fstest.MapFile{Data: []byte(doc)}
		report := runVerify(t, reg, tree, Options{})
		issues := report.ForPath("sitemap.xml")
		if len(issues) != 2 {
			t.Fatalf("expected count warning and alternates error, got %v", issues)
		}
		if len(report.Errors()) != 1 {
			t.Fatalf("expected missing alternates to be an error, got %v", report.Errors())
		}
	})
}

func TestVerifyKeySurface(t *testing.T) {
	reg := testRegistry()
	tree, _ := renderTree(t, reg, completeStore())

	source := sourceDictionary()
	delete(source["home"], "p_1")
	report := runVerify(t, reg, tree, Options{Templates: testTemplates, Source: source})

	if got := report.Count(CheckKeySurface); got != 1 {
		t.Fatalf("expected one key surface error, got %v", report.Issues)
	}
	issue := report.Errors()[0]
	if issue.Page != "home" || !strings.Contains(issue.Message, "{{t.home.p_1}}") {
		t.Fatalf("unexpected issue %v", issue)
	}
}

func TestVerifyHonoursCancellation(t *testing.T) {
	reg := testRegistry()
	tree, _ := renderTree(t, reg, completeStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(reg, tree, nil).Verify(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLinkCandidates(t *testing.T) {
	cases := map[string][]string{
		"/":             {"index.html"},
		"/guides/":      {"guides/index.html"},
		"/about":        {"about", "about/index.html", "about.html"},
		"/de/a/../b/":   {"de/b/index.html"},
		"/privacy.html": {"privacy.html", "privacy.html/index.html", "privacy.html.html"},
	}
	for target, want := range cases {
		if diff := cmp.Diff(want, linkCandidates(target)); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", target, diff)
		}
	}
}
