package reactive

import (
	"fmt"
	"reflect"
)

// Meter receives instrumentation callbacks from the reactive core.
type Meter interface {
	FieldWritten(key string, subscribers int)
	WriteSkipped(key string)
	WatcherUpdated(key string)
}

type nopMeter struct{}

func (nopMeter) FieldWritten(string, int) {}
func (nopMeter) WriteSkipped(string)      {}
func (nopMeter) WatcherUpdated(string)    {}

// ReactiveContext holds the state shared by every field of a Data object.
// It is not safe for concurrent use.
type ReactiveContext struct {
	// The subscriber currently performing a tracked read, if any.
	// Reads of a reactive field register this subscriber with the field's Dep.
	target Subscriber
	// Depth of in-progress notification fan-outs, writes are rejected while > 0
	notifying int
	meter     Meter
}

type Option func(*ReactiveContext)

func WithMeter(m Meter) Option {
	return func(rctx *ReactiveContext) {
		if m != nil {
			rctx.meter = m
		}
	}
}

func newReactiveContext(opts ...Option) *ReactiveContext {
	rctx := &ReactiveContext{meter: nopMeter{}}
	for _, opt := range opts {
		opt(rctx)
	}
	return rctx
}

// Active returns the subscriber currently tracking reads, or nil.
func (rctx *ReactiveContext) Active() Subscriber {
	return rctx.target
}

// Notifying reports whether a write is currently fanning out to subscribers.
func (rctx *ReactiveContext) Notifying() bool {
	return rctx.notifying > 0
}

// track runs fn with sub as the active subscriber. The previous subscriber is
// restored when fn returns, including when it panics.
func (rctx *ReactiveContext) track(sub Subscriber, fn func()) {
	prev := rctx.target
	defer func() {
		rctx.target = prev
	}()
	rctx.target = sub
	fn()
}

// Track runs fn with sub as the active subscriber of data, so every reactive
// field fn reads registers sub as a dependent. Dependency sets key on the
// subscriber itself, so sub should be a pointer; types that cannot be compared
// are rejected before fn runs.
func Track(data *Data, sub Subscriber, fn func()) error {
	if sub != nil && !reflect.TypeOf(sub).Comparable() {
		return fmt.Errorf("%w: %T", ErrUncomparableSubscriber, sub)
	}
	data.rctx.track(sub, fn)
	return nil
}
