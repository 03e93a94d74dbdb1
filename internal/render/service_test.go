package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-localize/internal/dictionary"
	localstorage "github.com/goliatone/go-localize/internal/storage"
)

type buildFixture struct {
	root    string
	service *Service
}

func newBuildFixture(t *testing.T, cfg Config) buildFixture {
	t.Helper()
	root := t.TempDir()
	provider := localstorage.NewFilesystem(root)
	reg := sixLocaleRegistry()

	templates := map[string]string{
		"home.html":    "<html lang=\"{{htmlLang}}\">\n<head>\n  {{hreflangTags}}\n</head>\n<h1>{{t.home.h1}}</h1>\n</html>\n",
		"guides.html":  "<html lang=\"{{htmlLang}}\">\n<h1>{{t.guides.h1}}</h1>\n</html>\n",
		"privacy.html": "<html lang=\"{{htmlLang}}\">\n<meta name=\"robots\" content=\"noindex\">\n</html>\n",
		"deals.html":   "<meta http-equiv=\"refresh\" content=\"0; url={{localePath}}/guides/\">\n",
	}
	for name, body := range templates {
		writeFile(t, filepath.Join(root, "templates", name), body)
	}

	files := dictionary.NewFileStore(provider, "locales", "en")
	ctx := context.Background()
	if err := files.Save(ctx, "en", dictionary.Dictionary{
		"home":   {"h1": "Welcome"},
		"guides": {"h1": "Guides"},
	}); err != nil {
		t.Fatalf("save en: %v", err)
	}
	if err := files.Save(ctx, "de", dictionary.Dictionary{
		"home": {"h1": "Willkommen"},
	}); err != nil {
		t.Fatalf("save de: %v", err)
	}

	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "templates"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "dist"
	}
	svc := NewService(cfg, reg, files, provider, nil)
	return buildFixture{root: root, service: svc}
}

func writeFile(t *testing.T, target, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", target, err)
	}
}

func readFile(t *testing.T, target string) string {
	t.Helper()
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read %s: %v", target, err)
	}
	return string(data)
}

func TestBuildWritesTreeSitemapAndManifest(t *testing.T) {
	fx := newBuildFixture(t, Config{GenerateSitemap: true, GenerateRobots: true, GenerateManifest: true})

	result, err := fx.service.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 24 {
		t.Fatalf("expected 4 pages x 6 locales, got %d", result.PagesBuilt)
	}
	if result.PagesChanged != 24 {
		t.Fatalf("expected every page changed on first build, got %d", result.PagesChanged)
	}
	if result.SitemapEntries != 18 {
		t.Fatalf("expected 3 sitemap pages x 6 locales, got %d", result.SitemapEntries)
	}

	dist := filepath.Join(fx.root, "dist")
	if got := readFile(t, filepath.Join(dist, "index.html")); !strings.Contains(got, "<h1>Welcome</h1>") {
		t.Fatalf("expected english home, got %s", got)
	}
	if got := readFile(t, filepath.Join(dist, "de", "index.html")); !strings.Contains(got, "<h1>Willkommen</h1>") || !strings.Contains(got, `lang="de"`) {
		t.Fatalf("expected german home, got %s", got)
	}
	if got := readFile(t, filepath.Join(dist, "de", "guides", "index.html")); !strings.Contains(got, "{{t.guides.h1}}") {
		t.Fatalf("expected missing german guides heading to stay visible, got %s", got)
	}
	if got := readFile(t, filepath.Join(dist, "sv", "deals.html")); !strings.Contains(got, "url=/sv/guides/") {
		t.Fatalf("expected localized redirect, got %s", got)
	}

	sitemap := readFile(t, filepath.Join(dist, "sitemap.xml"))
	if got := strings.Count(sitemap, "<url>"); got != 18 {
		t.Fatalf("expected 18 sitemap entries, got %d", got)
	}
	if strings.Contains(sitemap, "deals.html") {
		t.Fatalf("expected redirect page excluded from sitemap")
	}
	if got := strings.Count(sitemap, `hreflang="x-default"`); got != 18 {
		t.Fatalf("expected one x-default per entry, got %d", got)
	}
	if !strings.Contains(sitemap, "<loc>https://example.com/</loc>\n    <lastmod>") {
		t.Fatalf("expected home entry first, got %s", sitemap)
	}

	robots := readFile(t, filepath.Join(dist, "robots.txt"))
	if !strings.Contains(robots, "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("expected sitemap link in robots, got %s", robots)
	}

	manifest, err := parseManifest([]byte(readFile(t, filepath.Join(dist, manifestFileName))))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.RunID != result.RunID.String() {
		t.Fatalf("expected manifest run id %s, got %s", result.RunID, manifest.RunID)
	}
	if len(manifest.Outputs) != 26 {
		t.Fatalf("expected 24 pages plus sitemap and robots, got %d", len(manifest.Outputs))
	}
	ids := make(map[string]string, len(manifest.Outputs))
	for _, entry := range manifest.Outputs {
		if entry.ID == "" {
			t.Fatalf("expected id for %s", entry.Output)
		}
		if other, ok := ids[entry.ID]; ok {
			t.Fatalf("expected unique ids, %s and %s share %s", other, entry.Output, entry.ID)
		}
		ids[entry.ID] = entry.Output
	}

	second, err := fx.service.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if second.PagesChanged != 0 {
		t.Fatalf("expected unchanged rebuild, got %d changed", second.PagesChanged)
	}
}

func TestBuildCollectsUnresolvedPlaceholders(t *testing.T) {
	fx := newBuildFixture(t, Config{})

	result, err := fx.service.Build(context.Background(), BuildOptions{Locales: []string{"de"}, Pages: []string{"home", "guides"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.PagesBuilt != 2 {
		t.Fatalf("expected 2 pages, got %d", result.PagesBuilt)
	}
	if len(result.Unresolved) != 1 {
		t.Fatalf("expected one unresolved placeholder, got %v", result.Unresolved)
	}
	miss := result.Unresolved[0]
	if miss.Page != "guides" || miss.Locale != "de" || miss.Reason != ReasonMissingTranslation {
		t.Fatalf("unexpected unresolved entry %+v", miss)
	}
	if len(result.Fatal()) != 0 {
		t.Fatalf("expected no fatal misses, got %v", result.Fatal())
	}
	if _, err := os.Stat(filepath.Join(fx.root, "dist", "index.html")); !os.IsNotExist(err) {
		t.Fatalf("expected filtered build to skip english output")
	}
}

func TestBuildRendersAroundAnInvalidLocaleDictionary(t *testing.T) {
	fx := newBuildFixture(t, Config{})
	writeFile(t, filepath.Join(fx.root, "locales", "fr.json"), `{"home":{"h1":42}}`)

	result, err := fx.service.Build(context.Background(), BuildOptions{Locales: []string{"de", "fr"}, Pages: []string{"home", "guides"}})
	if err != nil {
		t.Fatalf("expected build to continue past fr, got %v", err)
	}
	if result.PagesBuilt != 4 {
		t.Fatalf("expected 4 pages, got %d", result.PagesBuilt)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one load error, got %v", result.Errors)
	}
	var localeErr *dictionary.LocaleError
	if !errors.As(result.Errors[0], &localeErr) || localeErr.Locale != "fr" {
		t.Fatalf("expected fr load error, got %v", result.Errors[0])
	}

	perLocale := map[string]int{}
	for _, miss := range result.Unresolved {
		if miss.Reason != ReasonMissingTranslation {
			t.Fatalf("expected missing translations only, got %+v", miss)
		}
		perLocale[miss.Locale]++
	}
	if perLocale["fr"] != 2 || perLocale["de"] != 1 {
		t.Fatalf("expected 2 fr and 1 de misses, got %v", perLocale)
	}
	if html := readFile(t, filepath.Join(fx.root, "dist", "fr", "index.html")); !strings.Contains(html, "{{t.home.h1}}") {
		t.Fatalf("expected visible placeholder in fr output, got %s", html)
	}
}

func TestBuildFailsOnInvalidSourceDictionary(t *testing.T) {
	fx := newBuildFixture(t, Config{})
	writeFile(t, filepath.Join(fx.root, "locales", "en.json"), `{"home":{"h1":42}}`)

	if _, err := fx.service.Build(context.Background(), BuildOptions{}); err == nil {
		t.Fatalf("expected error for an invalid source dictionary")
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	fx := newBuildFixture(t, Config{GenerateSitemap: true, GenerateRobots: true, GenerateManifest: true})

	result, err := fx.service.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !result.DryRun || result.PagesBuilt != 24 {
		t.Fatalf("expected dry run over 24 pages, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(fx.root, "dist")); !os.IsNotExist(err) {
		t.Fatalf("expected no output directory on dry run")
	}
}

func TestBuildRecordsMissingTemplate(t *testing.T) {
	fx := newBuildFixture(t, Config{})
	if err := os.Remove(filepath.Join(fx.root, "templates", "privacy.html")); err != nil {
		t.Fatalf("remove template: %v", err)
	}

	result, err := fx.service.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ErrTemplateMissing) {
		t.Fatalf("expected missing template error, got %v", result.Errors)
	}
	if result.PagesBuilt != 18 {
		t.Fatalf("expected remaining 18 pages built, got %d", result.PagesBuilt)
	}
}

func TestBuildConcurrentMatchesSequential(t *testing.T) {
	sequential := newBuildFixture(t, Config{})
	concurrent := newBuildFixture(t, Config{Workers: 4})

	want, err := sequential.service.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("sequential build: %v", err)
	}
	got, err := concurrent.service.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("concurrent build: %v", err)
	}
	if len(want.Rendered) != len(got.Rendered) {
		t.Fatalf("expected %d rendered pages, got %d", len(want.Rendered), len(got.Rendered))
	}
	for i := range want.Rendered {
		if want.Rendered[i].Output != got.Rendered[i].Output || want.Rendered[i].Checksum != got.Rendered[i].Checksum {
			t.Fatalf("rendered[%d]: expected %+v, got %+v", i, want.Rendered[i], got.Rendered[i])
		}
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	fx := newBuildFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fx.service.Build(ctx, BuildOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSitemapPolicy(t *testing.T) {
	reg := sixLocaleRegistry()
	cases := map[string][2]string{
		"home":    {"1.0", "daily"},
		"guides":  {"0.8", "weekly"},
		"privacy": {"0.3", "yearly"},
		"deals":   {"0.6", "monthly"},
	}
	for key, want := range cases {
		priority, freq := sitemapPolicy(mustPage(t, reg, key))
		if priority != want[0] || freq != want[1] {
			t.Fatalf("%s: expected %v, got %s %s", key, want, priority, freq)
		}
	}
}

func TestEffectiveWorkerCount(t *testing.T) {
	if got := effectiveWorkerCount(0, 10); got != 1 {
		t.Fatalf("expected sequential default, got %d", got)
	}
	if got := effectiveWorkerCount(8, 3); got != 3 {
		t.Fatalf("expected workers capped by jobs, got %d", got)
	}
	if got := effectiveWorkerCount(-1, 1000); got < 1 {
		t.Fatalf("expected at least one worker, got %d", got)
	}
}
