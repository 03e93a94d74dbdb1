// Package verify statically checks a rendered tree. It only reads: every
// check runs to completion and contributes issues to a single report.
package verify

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrVerificationFailed is returned by Report.Err when any error-level issue
// was found.
var ErrVerificationFailed = errors.New("verify: verification failed")

// Check names one independent verification.
type Check string

const (
	CheckCompleteness Check = "completeness"
	CheckPlaceholders Check = "placeholders"
	CheckLeakage      Check = "leakage"
	CheckHTMLLang     Check = "html_lang"
	CheckHreflang     Check = "hreflang"
	CheckSitemap      Check = "sitemap"
	CheckLinks        Check = "links"
	CheckNoIndex      Check = "noindex"
	CheckKeySurface   Check = "key_surface"
)

// Severity separates build-blocking errors from warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding.
type Issue struct {
	Check    Check
	Severity Severity
	Page     string
	Locale   string
	Path     string
	Line     int
	Message  string
}

func (i Issue) String() string {
	location := i.Path
	if location == "" {
		location = i.Page
	}
	if i.Line > 0 {
		location = fmt.Sprintf("%s:%d", location, i.Line)
	}
	if location == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Check, i.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.Check, location, i.Message)
}

// Report aggregates the issues of one run.
type Report struct {
	Issues   []Issue
	Files    int
	Duration time.Duration
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// Count returns how many issues check produced.
func (r *Report) Count(check Check) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Check == check {
			n++
		}
	}
	return n
}

// ForPath returns the issues recorded against one output path.
func (r *Report) ForPath(path string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Path == path {
			out = append(out, issue)
		}
	}
	return out
}

// Passed reports whether no error-level issue was found.
func (r *Report) Passed() bool {
	return len(r.Errors()) == 0
}

// Err returns ErrVerificationFailed wrapped with the error count, or nil.
func (r *Report) Err() error {
	if n := len(r.Errors()); n > 0 {
		return fmt.Errorf("%w: %d error(s), %d warning(s)", ErrVerificationFailed, n, len(r.Warnings()))
	}
	return nil
}

// Summary counts issues per check and severity, sorted by check name.
func (r *Report) Summary() []CheckSummary {
	index := map[Check]*CheckSummary{}
	for _, issue := range r.Issues {
		entry, ok := index[issue.Check]
		if !ok {
			entry = &CheckSummary{Check: issue.Check}
			index[issue.Check] = entry
		}
		if issue.Severity == SeverityError {
			entry.Errors++
		} else {
			entry.Warnings++
		}
	}
	out := make([]CheckSummary, 0, len(index))
	for _, entry := range index {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Check < out[j].Check })
	return out
}

// CheckSummary is the per-check tally of a report.
type CheckSummary struct {
	Check    Check
	Errors   int
	Warnings int
}
