package reactive

import (
	"fmt"

	"github.com/spf13/cast"
)

// Target is the display-side node a Watcher renders into.
type Target interface {
	SetNodeValue(value string)
}

// Watcher binds one field of a Data object to one display target.
type Watcher struct {
	target Target
	data   *Data
	key    string
	// last value read during construction, Update never consults it
	value any
}

// NewWatcher creates a watcher and registers it as a dependent of key by
// reading the field while it is the active subscriber.
func NewWatcher(data *Data, key string, target Target) *Watcher {
	w := &Watcher{
		target: target,
		data:   data,
		key:    key,
	}
	data.rctx.track(w, func() {
		w.value, _ = data.Get(key)
	})
	return w
}

func (w *Watcher) Key() string {
	return w.key
}

func (w *Watcher) Value() any {
	return w.value
}

func (w *Watcher) Target() Target {
	return w.target
}

// Update pushes the live value of the field into the target.
func (w *Watcher) Update() {
	v, _ := w.data.Peek(w.key)
	w.target.SetNodeValue(Display(v))
	w.data.rctx.meter.WatcherUpdated(w.key)
}

// Display converts a field value to the string shown in the display tree.
// Missing and nil values render as the empty string.
func Display(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
