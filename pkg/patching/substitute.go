package patching

import (
	"sort"
	"strings"
)

// Substituter replaces placeholder tokens in patch content. A token is the
// prefix, the upper-cased variable name and the suffix, so with prefix
// "@@HOMEBREW_" and suffix "@@" the variable "prefix" is written
// @@HOMEBREW_PREFIX@@.
type Substituter struct {
	prefix   string
	suffix   string
	defaults map[string]string
}

// NewSubstituter returns a Substituter whose defaults apply when a call
// supplies no value of its own.
func NewSubstituter(prefix, suffix string, defaults map[string]string) *Substituter {
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[strings.ToLower(k)] = v
	}
	return &Substituter{prefix: prefix, suffix: suffix, defaults: d}
}

// Token returns the placeholder for name.
func (s *Substituter) Token(name string) string {
	return s.prefix + strings.ToUpper(name) + s.suffix
}

// Apply substitutes every known token in a single pass. Replacement values
// are not rescanned.
func (s *Substituter) Apply(content []byte, variables map[string]string) []byte {
	merged := make(map[string]string, len(s.defaults)+len(variables))
	for k, v := range s.defaults {
		merged[k] = v
	}
	for k, v := range variables {
		merged[strings.ToLower(k)] = v
	}
	if len(merged) == 0 {
		return content
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, s.Token(name), merged[name])
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(content)))
}
