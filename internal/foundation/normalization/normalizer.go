// Package normalization maps loosely written configuration strings onto
// typed enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string
}

// NewNormalizer creates a normalizer for the enum called name. Keys are
// matched case-insensitively and without surrounding whitespace.
func NewNormalizer[T comparable](name string, values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		nk := clean(k)
		normalized[nk] = v
		keys = append(keys, nk)
	}
	sort.Strings(keys)
	return &Normalizer[T]{name: name, validValues: normalized, defaultValue: defaultValue, validKeys: keys}
}

// Normalize returns the value for raw, or the default when raw is empty or unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.validValues[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse returns the value for raw. An empty raw yields the default; an
// unknown one is an error listing the valid options.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	c := clean(raw)
	if c == "" {
		return n.defaultValue, nil
	}
	if v, ok := n.validValues[c]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", n.name, raw, strings.Join(n.validKeys, ", "))
}

// ValidKeys returns all valid normalized keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.validKeys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
