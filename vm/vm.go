// Package vm mounts a reactive data object onto a document: it resolves the
// root element, makes the data reactive and compiles the subtree.
package vm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/delaneyj/signalbind/compiler"
	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/reactive"
)

const tracerName = "github.com/delaneyj/signalbind/vm"

type Options struct {
	// CSS selector of the element to bind, e.g. "#app"
	Root string
	// Initial data object, every key becomes reactive
	Data   map[string]any
	Strict bool
	Logger *slog.Logger
	Meter  reactive.Meter
	Tracer trace.Tracer
}

// VM is a mounted document. Its methods serialize access, so a write always
// finishes updating the display before the next write or input event starts.
type VM struct {
	mu       sync.Mutex
	doc      *dom.Document
	root     *dom.Element
	data     *reactive.Data
	bindings *compiler.Result
	logger   *slog.Logger
}

func New(ctx context.Context, doc *dom.Document, opts Options) (*VM, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "vm.New", trace.WithAttributes(
		attribute.String("signalbind.root", opts.Root),
		attribute.Int("signalbind.fields", len(opts.Data)),
	))
	defer span.End()

	v, err := mount(ctx, doc, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return v, err
	}
	span.SetAttributes(attribute.Int("signalbind.bindings", len(v.bindings.Bindings)))
	return v, nil
}

func mount(ctx context.Context, doc *dom.Document, opts Options) (*VM, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if doc == nil {
		return nil, &ConfigurationError{Option: "document", Err: ErrRootNotFound}
	}

	root := doc.Body
	if opts.Root != "" {
		el, err := doc.QuerySelector(opts.Root)
		if err != nil {
			return nil, &ConfigurationError{Option: "root", Value: opts.Root, Err: err}
		}
		if el == nil {
			return nil, &ConfigurationError{Option: "root", Value: opts.Root, Err: ErrRootNotFound}
		}
		root = el
	}

	data := reactive.NewData(reactive.WithMeter(opts.Meter))
	if err := reactive.Observe(opts.Data, data); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	v := &VM{
		doc:    doc,
		root:   root,
		data:   data,
		logger: logger,
	}
	res, err := compiler.Compile(root, data,
		compiler.WithStrict(opts.Strict),
		compiler.WithLogger(logger),
	)
	v.bindings = res
	if err != nil {
		return v, fmt.Errorf("mount: %w", err)
	}

	logger.DebugContext(ctx, "mounted",
		"root", opts.Root,
		"fields", len(opts.Data),
		"bindings", len(res.Bindings),
	)
	return v, nil
}

// Set writes a field. Every dependent binding is updated before Set returns.
func (v *VM) Set(key string, value any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data.Set(key, value)
}

// SetFunc writes the value fn derives from the field's current value. Reading
// and writing happen under the same lock.
func (v *VM) SetFunc(key string, fn func(current any) (any, error)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	current, ok := v.data.Peek(key)
	if !ok {
		return fmt.Errorf("%w: %q", reactive.ErrUnknownField, key)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return v.data.Set(key, next)
}

func (v *VM) Get(key string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data.Peek(key)
}

// Input types value into the element matched by selector and fires its input
// listeners.
func (v *VM) Input(selector, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	el, err := dom.QuerySelector(v.root, selector)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	el.Input(value)
	return nil
}

// Snapshot returns the current data values.
func (v *VM) Snapshot() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data.Snapshot()
}

func (v *VM) HTML() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.HTML()
}

func (v *VM) Fingerprint() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.Fingerprint()
}

// Render returns the markup and its fingerprint from the same state.
func (v *VM) Render() (string, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.HTML(), v.doc.Fingerprint()
}

func (v *VM) Bindings() []compiler.Binding {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]compiler.Binding, len(v.bindings.Bindings))
	copy(out, v.bindings.Bindings)
	return out
}

// Subscribers returns the number of watchers per field.
func (v *VM) Subscribers() map[string]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := map[string]int{}
	for _, k := range v.data.Keys() {
		out[k] = v.data.Subscribers(k)
	}
	return out
}

// Data exposes the reactive data object. Callers must not use it
// concurrently with the VM's own methods.
func (v *VM) Data() *reactive.Data {
	return v.data
}
