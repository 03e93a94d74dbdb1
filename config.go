package localize

import "github.com/goliatone/go-localize/internal/runtimeconfig"

var (
	ErrInvalidConfig        = runtimeconfig.ErrInvalidConfig
	ErrConfigNotFound       = runtimeconfig.ErrConfigNotFound
	ErrSourceLocaleUnknown  = runtimeconfig.ErrSourceLocaleUnknown
	ErrSourceLocalePrefix   = runtimeconfig.ErrSourceLocalePrefix
	ErrDuplicateLocale      = runtimeconfig.ErrDuplicateLocale
	ErrDuplicatePage        = runtimeconfig.ErrDuplicatePage
	ErrLanguageTagInvalid   = runtimeconfig.ErrLanguageTagInvalid
	ErrPageRoleInvalid      = runtimeconfig.ErrPageRoleInvalid
	ErrLoggingLevelInvalid  = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	PathsConfig       = runtimeconfig.PathsConfig
	LocaleConfig      = runtimeconfig.LocaleConfig
	PageConfig        = runtimeconfig.PageConfig
	ExtractionConfig  = runtimeconfig.ExtractionConfig
	TranslationConfig = runtimeconfig.TranslationConfig
	BuildConfig       = runtimeconfig.BuildConfig
	VerifyConfig      = runtimeconfig.VerifyConfig
	CommandsConfig    = runtimeconfig.CommandsConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a TOML site file, its sibling .env and the LOCALIZE_*
// environment overrides, then validates the result.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
