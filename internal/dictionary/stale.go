package dictionary

// Stale reports whether the target locale's copy of scope needs a full
// re-translation. A scope is complete only when its key count equals the
// source's; key names and values are not compared.
func Stale(source, target Dictionary, scope string) bool {
	if !target.Has(scope) {
		return source.KeyCount(scope) > 0
	}
	return target.KeyCount(scope) != source.KeyCount(scope)
}

// StaleScope describes one scope that needs translating.
type StaleScope struct {
	Scope       string
	SourceKeys  int
	CurrentKeys int
	Missing     bool
}

// StaleScopes lists, in sorted order, every source scope that is stale in target.
func StaleScopes(source, target Dictionary) []StaleScope {
	var out []StaleScope
	for _, scope := range source.Scopes() {
		if !Stale(source, target, scope) {
			continue
		}
		out = append(out, StaleScope{
			Scope:       scope,
			SourceKeys:  source.KeyCount(scope),
			CurrentKeys: target.KeyCount(scope),
			Missing:     !target.Has(scope),
		})
	}
	return out
}
