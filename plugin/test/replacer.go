package test

import (
	"context"
	"strings"

	"github.com/nextdhcp/dhcpadmin/core/replacer"
)

type (
	// SetFunc is called when Replacer.Set is called
	SetFunc func(string, replacer.Value)

	// GetFunc is called when Replacer.Get is called
	GetFunc func(string) string

	// ReplaceFunc is called when Replacer.Replace is called
	ReplaceFunc func(string) string

	// Replacer implements the replacer.Replacer interface. Without
	// functions set it returns keys and input unchanged.
	Replacer struct {
		Getter   GetFunc
		Setter   SetFunc
		Replacer ReplaceFunc
	}
)

// Get implements replacer.Replacer
func (r *Replacer) Get(key string) string {
	if r.Getter != nil {
		return r.Getter(key)
	}

	return key
}

// Set implements replacer.Replacer
func (r *Replacer) Set(key string, v replacer.Value) {
	if r.Setter != nil {
		r.Setter(key, v)
	}
}

// Replace implements replacer.Replacer
func (r *Replacer) Replace(input string) string {
	if r.Replacer != nil {
		return r.Replacer(input)
	}

	return input
}

// WithReplacer returns a context that has a test replacer assigned.
// Notifiers and matchers use it instead of building one from the report.
func WithReplacer(ctx context.Context) (context.Context, *Replacer) {
	r := &Replacer{}
	return replacer.WithReplacer(ctx, r), r
}

// WithValues returns a context with a test replacer that resolves keys
// from values. Unknown keys resolve to the empty string.
func WithValues(ctx context.Context, values map[string]string) context.Context {
	ctx, r := WithReplacer(ctx)
	r.Getter = func(key string) string {
		return values[key]
	}
	r.Replacer = func(input string) string {
		for k, v := range values {
			input = strings.ReplaceAll(input, "{"+k+"}", v)
		}
		return input
	}
	return ctx
}
