package reactive

import (
	"fmt"
	"sort"
)

// Data is a flat data object whose fields are all reactive.
type Data struct {
	rctx   *ReactiveContext
	fields map[string]*Field
	order  []string
}

func NewData(opts ...Option) *Data {
	return &Data{
		rctx:   newReactiveContext(opts...),
		fields: map[string]*Field{},
	}
}

// Observe makes every key of source reactive on target, in sorted key order.
func Observe(source map[string]any, target *Data) error {
	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := Define(target, k, source[k]); err != nil {
			return fmt.Errorf("observe: %w", err)
		}
	}
	return nil
}

func (d *Data) Context() *ReactiveContext {
	return d.rctx
}

func (d *Data) Field(key string) (*Field, bool) {
	f, ok := d.fields[key]
	return f, ok
}

// Get is a tracked read of key.
func (d *Data) Get(key string) (any, bool) {
	f, ok := d.fields[key]
	if !ok {
		return nil, false
	}
	return f.Value(), true
}

// Peek is an untracked read of key.
func (d *Data) Peek(key string) (any, bool) {
	f, ok := d.fields[key]
	if !ok {
		return nil, false
	}
	return f.Peek(), true
}

func (d *Data) Set(key string, value any) error {
	f, ok := d.fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return f.SetValue(value)
}

func (d *Data) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Keys returns the reactive keys in definition order.
func (d *Data) Keys() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Subscribers returns how many subscribers depend on key.
func (d *Data) Subscribers(key string) int {
	f, ok := d.fields[key]
	if !ok {
		return 0
	}
	return f.dep.Len()
}

// Snapshot copies the current values without tracking.
func (d *Data) Snapshot() map[string]any {
	out := make(map[string]any, len(d.fields))
	for k, f := range d.fields {
		out[k] = f.value
	}
	return out
}
