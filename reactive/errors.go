package reactive

import "errors"

var (
	// ErrAlreadyReactive is returned when Define is called twice for the same key.
	ErrAlreadyReactive = errors.New("signalbind: field is already reactive")

	// ErrUnknownField is returned when writing a key that was never made reactive.
	// Fields added after Observe are not tracked.
	ErrUnknownField = errors.New("signalbind: unknown field")

	// ErrReentrantWrite is returned when a field is written while another write
	// is still notifying its subscribers, e.g. from inside Watcher.Update.
	ErrReentrantWrite = errors.New("signalbind: write during notification")

	// ErrUncomparableSubscriber is returned by Track for subscribers that cannot
	// be used as set members, such as func types or structs holding slices.
	ErrUncomparableSubscriber = errors.New("signalbind: subscriber type is not comparable")
)
