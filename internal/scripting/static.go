package scripting

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ErrScriptPanic wraps a panic recovered from script code.
var ErrScriptPanic = errors.New("script panicked")

// Factory builds one script instance.
type Factory func() Script

type staticEntry struct {
	name string
	new  Factory
}

// StaticRegistry is a fixed tag to factory table, typically generated at
// build time. Reload returns the registry itself.
type StaticRegistry struct {
	table map[string][]staticEntry
	order []string
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{table: make(map[string][]staticEntry)}
}

// Register appends a factory to tag. Factories run in registration order.
func (r *StaticRegistry) Register(tag, name string, f Factory) *StaticRegistry {
	if _, ok := r.table[tag]; !ok {
		r.order = append(r.order, tag)
	}
	r.table[tag] = append(r.table[tag], staticEntry{name: name, new: f})
	return r
}

// Instantiate builds every script of tag. A factory that panics is skipped
// and reported; the others are still returned. Unknown tags yield nothing.
func (r *StaticRegistry) Instantiate(tag string) ([]Script, error) {
	var (
		out  []Script
		errs error
	)
	for _, e := range r.table[tag] {
		s, err := build(e.new)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instantiate %s for %q: %w", e.name, tag, err))
			continue
		}
		out = append(out, s)
	}
	return out, errs
}

func build(f Factory) (s Script, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrScriptPanic, r)
		}
	}()
	s = f()
	if s == nil {
		return nil, errors.New("factory returned nil")
	}
	return s, nil
}

func (r *StaticRegistry) Reload() (Registry, error) { return r, nil }

// Tags lists the registered tags in registration order.
func (r *StaticRegistry) Tags() []string { return r.order }

// Source renders the table as text, one "tag name" line per factory.
func (r *StaticRegistry) Source() []byte {
	var b strings.Builder
	for _, tag := range r.order {
		for _, e := range r.table[tag] {
			fmt.Fprintf(&b, "%s %s\n", tag, e.name)
		}
	}
	return []byte(b.String())
}
