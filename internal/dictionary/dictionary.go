// Package dictionary is the locale store: per-locale string dictionaries
// keyed by scope and key, the snapshot used by a build, the key-count
// staleness check and a schema-validated file store.
package dictionary

import (
	"maps"
	"slices"
	"strings"
)

// Dictionary maps scope -> key -> value for a single locale.
type Dictionary map[string]map[string]string

// New returns an empty dictionary.
func New() Dictionary {
	return Dictionary{}
}

// Get returns the value for scope and key.
func (d Dictionary) Get(scope, key string) (string, bool) {
	if d == nil {
		return "", false
	}
	entries, ok := d[scope]
	if !ok {
		return "", false
	}
	value, ok := entries[key]
	return value, ok
}

// Has reports whether the scope exists, even when empty.
func (d Dictionary) Has(scope string) bool {
	_, ok := d[scope]
	return ok
}

// Set stores value under scope and key, creating the scope when needed.
func (d Dictionary) Set(scope, key, value string) {
	entries, ok := d[scope]
	if !ok {
		entries = map[string]string{}
		d[scope] = entries
	}
	entries[key] = value
}

// Scope returns the entries of a scope. The map is shared with d.
func (d Dictionary) Scope(scope string) map[string]string {
	return d[scope]
}

// ReplaceScope swaps a whole scope for a copy of entries.
func (d Dictionary) ReplaceScope(scope string, entries map[string]string) {
	d[scope] = maps.Clone(entries)
	if d[scope] == nil {
		d[scope] = map[string]string{}
	}
}

// Conflict describes a key that already held a different value during a merge.
type Conflict struct {
	Scope    string
	Key      string
	Existing string
	Incoming string
}

// Merge adds every entry of other that d does not already hold. Existing
// values win; differing values are returned as conflicts in scope/key order.
func (d Dictionary) Merge(other Dictionary) []Conflict {
	var conflicts []Conflict
	for _, scope := range other.Scopes() {
		entries := other[scope]
		if _, ok := d[scope]; !ok {
			d[scope] = map[string]string{}
		}
		for _, key := range sortedKeys(entries) {
			incoming := entries[key]
			existing, ok := d[scope][key]
			if !ok {
				d[scope][key] = incoming
				continue
			}
			if existing != incoming {
				conflicts = append(conflicts, Conflict{Scope: scope, Key: key, Existing: existing, Incoming: incoming})
			}
		}
	}
	return conflicts
}

// Overwrite copies every entry of other into d, replacing existing values.
func (d Dictionary) Overwrite(other Dictionary) {
	for scope, entries := range other {
		for key, value := range entries {
			d.Set(scope, key, value)
		}
	}
}

// Clone returns a deep copy.
func (d Dictionary) Clone() Dictionary {
	if d == nil {
		return nil
	}
	out := make(Dictionary, len(d))
	for scope, entries := range d {
		out[scope] = maps.Clone(entries)
		if out[scope] == nil {
			out[scope] = map[string]string{}
		}
	}
	return out
}

// Scopes returns the scope names in sorted order.
func (d Dictionary) Scopes() []string {
	return slices.Sorted(maps.Keys(d))
}

// Keys returns the keys of a scope in sorted order.
func (d Dictionary) Keys(scope string) []string {
	return sortedKeys(d[scope])
}

// KeyCount returns the number of keys held by scope.
func (d Dictionary) KeyCount(scope string) int {
	return len(d[scope])
}

// Len returns the total number of entries.
func (d Dictionary) Len() int {
	total := 0
	for _, entries := range d {
		total += len(entries)
	}
	return total
}

// Blank returns the scope.key pairs whose value is empty or whitespace.
func (d Dictionary) Blank() []string {
	var out []string
	for _, scope := range d.Scopes() {
		for _, key := range d.Keys(scope) {
			if strings.TrimSpace(d[scope][key]) == "" {
				out = append(out, scope+"."+key)
			}
		}
	}
	return out
}

func sortedKeys(entries map[string]string) []string {
	return slices.Sorted(maps.Keys(entries))
}
