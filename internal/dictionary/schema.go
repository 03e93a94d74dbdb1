package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidDictionary wraps schema violations of a dictionary document.
var ErrInvalidDictionary = errors.New("dictionary: invalid document")

const identPattern = "^[A-Za-z0-9_-]+$"

// Issue is one schema violation.
type Issue struct {
	Location string
	Message  string
}

// ValidationError lists the violations found in a dictionary document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDictionary, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDictionary
}

var (
	schemaOnce       sync.Once
	localeSchema     *jsonschema.Schema
	sourceSchema     *jsonschema.Schema
	schemaCompileErr error
)

func documentSchema(nonEmptyValues bool) map[string]any {
	value := map[string]any{"type": "string"}
	if nonEmptyValues {
		value["minLength"] = 1
		value["pattern"] = `\S`
	}
	return map[string]any{
		"$schema":       "https://json-schema.org/draft/2020-12/schema",
		"type":          "object",
		"propertyNames": map[string]any{"pattern": identPattern},
		"additionalProperties": map[string]any{
			"type":                 "object",
			"propertyNames":        map[string]any{"pattern": identPattern},
			"additionalProperties": value,
		},
	}
}

func compileDocumentSchema(nonEmptyValues bool) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(documentSchema(nonEmptyValues))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("dictionary.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("dictionary.json")
}

func schemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		localeSchema, schemaCompileErr = compileDocumentSchema(false)
		if schemaCompileErr != nil {
			return
		}
		sourceSchema, schemaCompileErr = compileDocumentSchema(true)
	})
	return localeSchema, sourceSchema, schemaCompileErr
}

// Validate checks a raw dictionary document. The source locale additionally
// requires every value to hold non-whitespace text.
func Validate(raw []byte, source bool) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDictionary, err)
	}
	locale, src, err := schemas()
	if err != nil {
		return fmt.Errorf("dictionary: compile schema: %w", err)
	}
	schema := locale
	if source {
		schema = src
	}
	if err := schema.Validate(doc); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &ValidationError{Issues: collectIssues(validationErr)}
		}
		return fmt.Errorf("%w: %v", ErrInvalidDictionary, err)
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
