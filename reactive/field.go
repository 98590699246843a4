package reactive

import (
	"fmt"
	"reflect"
)

// Field is the accessor pair of one reactive key: its current value and the
// set of subscribers that read it while tracking.
type Field struct {
	rctx  *ReactiveContext
	key   string
	value any
	dep   *Dep
}

// Define makes key reactive on data with the given initial value.
func Define(data *Data, key string, value any) (*Field, error) {
	if _, exists := data.fields[key]; exists {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyReactive, key)
	}
	f := &Field{
		rctx:  data.rctx,
		key:   key,
		value: value,
		dep:   newDep(),
	}
	data.fields[key] = f
	data.order = append(data.order, key)
	return f, nil
}

func (f *Field) Key() string {
	return f.key
}

func (f *Field) Dep() *Dep {
	return f.dep
}

// Value returns the current value, registering the active subscriber if any.
func (f *Field) Value() any {
	if f.rctx.target != nil {
		f.dep.add(f.rctx.target)
	}
	return f.value
}

// Peek returns the current value without registering anything.
func (f *Field) Peek() any {
	return f.value
}

// SetValue replaces the value and synchronously updates every subscriber in
// registration order. Writing an equal value notifies nobody.
func (f *Field) SetValue(value any) error {
	if f.rctx.notifying > 0 {
		return fmt.Errorf("%w: %q", ErrReentrantWrite, f.key)
	}
	if equal(f.value, value) {
		f.rctx.meter.WriteSkipped(f.key)
		return nil
	}
	f.value = value
	f.rctx.meter.FieldWritten(f.key, f.dep.Len())

	f.rctx.notifying++
	defer func() {
		f.rctx.notifying--
	}()
	f.dep.notifyAll()
	return nil
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Struct, reflect.Array:
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
