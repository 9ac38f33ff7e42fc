// Package keyed resolves a field whose value depends on another attribute,
// such as a worker type chosen by level or a signing type chosen by
// build-type.
//
// A Value holds an ordered list of rules. Resolution tries, in order:
//  1. a rule whose pattern equals the key exactly;
//  2. the first rule whose pattern, read as a regular expression, matches
//     the whole key;
//  3. the declared default.
//
// A key that matches nothing and has no default is an error.
package keyed

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoMatch is returned when no rule matches and no default is declared.
var ErrNoMatch = errors.New("no keyed rule matches")

// Rule maps a pattern to a value.
type Rule[T any] struct {
	Pattern string
	Value   T
}

// Value is a field resolved by the attribute named in By.
type Value[T any] struct {
	By      string
	Rules   []Rule[T]
	Default *T
}

// By starts a Value keyed on the named attribute.
func By[T any](attribute string) Value[T] {
	return Value[T]{By: attribute}
}

// When appends a rule and returns the extended Value.
func (v Value[T]) When(pattern string, value T) Value[T] {
	rules := make([]Rule[T], len(v.Rules), len(v.Rules)+1)
	copy(rules, v.Rules)
	v.Rules = append(rules, Rule[T]{Pattern: pattern, Value: value})
	return v
}

// Otherwise sets the default and returns the extended Value.
func (v Value[T]) Otherwise(value T) Value[T] {
	v.Default = &value
	return v
}

// Resolve picks the value for key.
func (v Value[T]) Resolve(key string) (T, error) {
	for _, r := range v.Rules {
		if r.Pattern == key {
			return r.Value, nil
		}
	}
	for _, r := range v.Rules {
		re, err := regexp.Compile(`^(?:` + r.Pattern + `)$`)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("keyed-by %s: invalid pattern %q: %w", v.By, r.Pattern, err)
		}
		if re.MatchString(key) {
			return r.Value, nil
		}
	}
	if v.Default != nil {
		return *v.Default, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s=%q", ErrNoMatch, v.By, key)
}

// ResolveFrom looks up the key in attrs under v.By and resolves it. A
// missing or non-string attribute resolves as the empty key.
func (v Value[T]) ResolveFrom(attrs map[string]any) (T, error) {
	key, _ := attrs[v.By].(string)
	return v.Resolve(key)
}
