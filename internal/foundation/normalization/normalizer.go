// Package normalization turns loosely formatted user input (environment
// variables, flags, YAML values) into typed enum values.
package normalization

import "strings"

// Normalizer maps trimmed, case-folded input onto values of T. Unknown input
// yields the fallback.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
}

// NewNormalizer builds a normalizer from aliases. Alias keys are folded the
// same way input is.
func NewNormalizer[T comparable](aliases map[string]T, fallback T) *Normalizer[T] {
	values := make(map[string]T, len(aliases))
	for k, v := range aliases {
		values[fold(k)] = v
	}
	return &Normalizer[T]{values: values, fallback: fallback}
}

func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[fold(raw)]; ok {
		return v
	}
	return n.fallback
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
