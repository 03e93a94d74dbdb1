package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-localize/pkg/interfaces"
)

const (
	rootModule      = "localize"
	extractModule   = "localize.extract"
	renderModule    = "localize.render"
	translateModule = "localize.translate"
	verifyModule    = "localize.verify"
	commandsModule  = "localize.commands"
)

const (
	fieldPage   = "page"
	fieldLocale = "locale"
	fieldScope  = "scope"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per stage.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ExtractLogger returns the logger namespace reserved for extraction.
func ExtractLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, extractModule)
}

// RenderLogger returns the logger namespace reserved for rendering and builds.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// TranslateLogger returns the logger namespace reserved for translation refreshes.
func TranslateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, translateModule)
}

// VerifyLogger returns the logger namespace reserved for verification.
func VerifyLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, verifyModule)
}

// CommandLogger returns the logger for one command handler.
func CommandLogger(provider interfaces.LoggerProvider, command string) interfaces.Logger {
	command = strings.TrimSpace(command)
	if command == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+command)
}

// WithPageContext enriches logger with page, locale and scope fields. Empty
// values are ignored.
func WithPageContext(logger interfaces.Logger, page, locale, scope string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(page); trimmed != "" {
		fields[fieldPage] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	if trimmed := strings.TrimSpace(scope); trimmed != "" {
		fields[fieldScope] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
