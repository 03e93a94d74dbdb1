package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"

	"github.com/goliatone/go-localize/internal/site"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("localize config: invalid configuration")
	// ErrSourceLocaleUnknown indicates the source locale has no registry entry.
	ErrSourceLocaleUnknown = errors.New("localize config: source locale is not registered")
	// ErrSourceLocalePrefix indicates the source locale is served under a prefix.
	ErrSourceLocalePrefix = errors.New("localize config: source locale must have an empty path prefix")
	// ErrDuplicateLocale indicates two locales share a code.
	ErrDuplicateLocale = errors.New("localize config: duplicate locale code")
	// ErrDuplicatePage indicates two pages share a key.
	ErrDuplicatePage           = errors.New("localize config: duplicate page key")
	ErrLanguageTagInvalid      = errors.New("localize config: language tag is invalid")
	ErrPageRoleInvalid         = errors.New("localize config: page role is invalid")
	ErrLoggingLevelInvalid     = errors.New("localize config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("localize config: logging format is invalid")
	ErrBuildWorkersInvalid     = errors.New("localize config: build workers must be -1 or greater")
	ErrCommandTimeoutNegative  = errors.New("localize config: command timeout must be zero or positive")
	ErrScopeCharactersInvalid  = errors.New("localize config: page keys may only contain letters, digits, '_' and '-'")
	ErrSharedScopeReserved     = errors.New("localize config: page key collides with the shared scope")
	ErrRedirectTargetNotRooted = errors.New("localize config: redirect targets must be root-relative")
)

// Config is the site configuration: registries plus per-stage settings.
type Config struct {
	BaseURL      string            `toml:"base_url"`
	SourceLocale string            `toml:"source_locale"`
	Paths        PathsConfig       `toml:"paths"`
	Locales      []LocaleConfig    `toml:"locales"`
	Pages        []PageConfig      `toml:"pages"`
	Extraction   ExtractionConfig  `toml:"extraction"`
	Translation  TranslationConfig `toml:"translation"`
	Build        BuildConfig       `toml:"build"`
	Verify       VerifyConfig      `toml:"verify"`
	Commands     CommandsConfig    `toml:"commands"`
	Logging      LoggingConfig     `toml:"logging"`
}

// PathsConfig locates every artifact. Pages, Templates, Locales and Output
// are relative to Root.
type PathsConfig struct {
	Root      string `toml:"root"`
	Pages     string `toml:"pages"`
	Templates string `toml:"templates"`
	Locales   string `toml:"locales"`
	Output    string `toml:"output"`
}

// LocaleConfig is one locale registry entry.
type LocaleConfig struct {
	Code        string `toml:"code"`
	PathPrefix  string `toml:"path_prefix"`
	OGLocale    string `toml:"og_locale"`
	HTMLLang    string `toml:"html_lang"`
	Hreflang    string `toml:"hreflang"`
	DisplayName string `toml:"display_name"`
	Flag        string `toml:"flag"`
}

// PageConfig is one page registry entry. Source and Template default to
// Output.
type PageConfig struct {
	Key            string `toml:"key"`
	Source         string `toml:"source"`
	Template       string `toml:"template"`
	Output         string `toml:"output"`
	Role           string `toml:"role"`
	RedirectTo     string `toml:"redirect_to"`
	NoIndex        bool   `toml:"noindex"`
	HreflangExempt bool   `toml:"hreflang_exempt"`
}

// ExtractionConfig overrides the built-in vocabularies. Empty values keep
// the defaults.
type ExtractionConfig struct {
	NavListClass      string            `toml:"nav_list_class"`
	NavLabels         map[string]string `toml:"nav_labels"`
	CTALabels         []string          `toml:"cta_labels"`
	SemanticClasses   []string          `toml:"semantic_classes"`
	DataLabelAttr     string            `toml:"data_label_attr"`
	BrandNames        []string          `toml:"brand_names"`
	BrandClasses      []string          `toml:"brand_classes"`
	FooterClasses     map[string]string `toml:"footer_classes"`
	PopupClass        string            `toml:"popup_class"`
	PopupClasses      map[string]string `toml:"popup_classes"`
	TextualFields     []string          `toml:"textual_fields"`
	NonEditorialTypes []string          `toml:"non_editorial_types"`
	NameFields        []string          `toml:"name_fields"`
	AssetExtensions   []string          `toml:"asset_extensions"`
	ReservedDirs      []string          `toml:"reserved_dirs"`
}

// TranslationConfig captures translator guard rails.
type TranslationConfig struct {
	// ProtectedTerms must survive translation verbatim.
	ProtectedTerms []string `toml:"protected_terms"`
}

// BuildConfig captures build behaviour.
type BuildConfig struct {
	// Workers: 0 renders sequentially, -1 uses one worker per CPU.
	Workers  int  `toml:"workers"`
	Sitemap  bool `toml:"sitemap"`
	Robots   bool `toml:"robots"`
	Manifest bool `toml:"manifest"`
}

// VerifyConfig captures verification inputs.
type VerifyConfig struct {
	// KeySurface enables the template against source dictionary check.
	KeySurface      bool     `toml:"key_surface"`
	AssetExtensions []string `toml:"asset_extensions"`
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	// TimeoutSeconds bounds each command; zero disables the timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// LoggingConfig captures go-logger options.
type LoggingConfig struct {
	Level     string   `toml:"level"`
	Format    string   `toml:"format"`
	AddSource bool     `toml:"add_source"`
	Focus     []string `toml:"focus"`
}

// DefaultConfig returns defaults for everything but the registries.
func DefaultConfig() Config {
	return Config{
		SourceLocale: "en",
		Paths: PathsConfig{
			Root:      ".",
			Pages:     "pages",
			Templates: "templates",
			Locales:   "locales",
			Output:    "dist",
		},
		Build: BuildConfig{
			Workers:  0,
			Sitemap:  true,
			Robots:   true,
			Manifest: true,
		},
		Verify: VerifyConfig{
			KeySurface: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate performs consistency checks. Every failure wraps ErrInvalidConfig.
func (cfg Config) Validate() error {
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&cfg.SourceLocale, validation.Required),
		validation.Field(&cfg.Locales, validation.Required),
		validation.Field(&cfg.Pages, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&cfg.Paths,
		validation.Field(&cfg.Paths.Pages, validation.Required),
		validation.Field(&cfg.Paths.Templates, validation.Required),
		validation.Field(&cfg.Paths.Locales, validation.Required),
		validation.Field(&cfg.Paths.Output, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: paths: %v", ErrInvalidConfig, err)
	}

	for _, check := range []func() error{
		cfg.validateLocales,
		cfg.validatePages,
		cfg.validateSettings,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (cfg Config) validateLocales() error {
	seen := map[string]struct{}{}
	sourceFound := false
	for i, locale := range cfg.Locales {
		if err := validation.ValidateStruct(&locale,
			validation.Field(&locale.Code, validation.Required),
			validation.Field(&locale.HTMLLang, validation.Required, validation.By(languageTag)),
			validation.Field(&locale.Hreflang, validation.By(languageTag)),
			validation.Field(&locale.PathPrefix, validation.By(pathPrefix)),
		); err != nil {
			return fmt.Errorf("locales[%d]: %w", i, err)
		}
		code := strings.ToLower(locale.Code)
		if _, ok := seen[code]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateLocale, locale.Code)
		}
		seen[code] = struct{}{}
		if strings.EqualFold(locale.Code, cfg.SourceLocale) {
			sourceFound = true
			if strings.Trim(locale.PathPrefix, "/") != "" {
				return fmt.Errorf("%w: %s", ErrSourceLocalePrefix, locale.PathPrefix)
			}
		}
	}
	if !sourceFound {
		return fmt.Errorf("%w: %s", ErrSourceLocaleUnknown, cfg.SourceLocale)
	}
	return nil
}

func (cfg Config) validatePages() error {
	seen := map[string]struct{}{}
	for i, page := range cfg.Pages {
		if err := validation.ValidateStruct(&page,
			validation.Field(&page.Key, validation.Required),
			validation.Field(&page.Output, validation.Required),
		); err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
		if !scopeName(page.Key) {
			return fmt.Errorf("%w: %q", ErrScopeCharactersInvalid, page.Key)
		}
		if page.Key == site.SharedScope {
			return fmt.Errorf("%w: %q", ErrSharedScopeReserved, page.Key)
		}
		if _, ok := seen[page.Key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePage, page.Key)
		}
		seen[page.Key] = struct{}{}
		if _, err := parseRole(page.Role); err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
		if target := strings.TrimSpace(page.RedirectTo); target != "" && !strings.HasPrefix(target, "/") {
			return fmt.Errorf("%w: %s", ErrRedirectTargetNotRooted, target)
		}
	}
	return nil
}

func (cfg Config) validateSettings() error {
	if cfg.Build.Workers < -1 {
		return ErrBuildWorkersInvalid
	}
	if cfg.Commands.TimeoutSeconds < 0 {
		return ErrCommandTimeoutNegative
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func languageTag(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if strings.EqualFold(raw, site.XDefault) {
		return fmt.Errorf("%w: %s is reserved", ErrLanguageTagInvalid, raw)
	}
	if _, err := language.Parse(raw); err != nil {
		return fmt.Errorf("%w: %s", ErrLanguageTagInvalid, raw)
	}
	return nil
}

func pathPrefix(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if !strings.HasPrefix(raw, "/") || strings.HasSuffix(raw, "/") {
		return errors.New("must start with '/' and not end with '/'")
	}
	return nil
}

func scopeName(key string) bool {
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return key != ""
}

func parseRole(role string) (site.Role, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "page", "standard":
		return site.RoleStandard, nil
	case "home":
		return site.RoleHome, nil
	case "hub", "index":
		return site.RoleHub, nil
	case "legal":
		return site.RoleLegal, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrPageRoleInvalid, role)
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
