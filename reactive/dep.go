package reactive

import mapset "github.com/deckarep/golang-set/v2"

// Subscriber is notified after a field it depends on has been written.
// Implementations are used as set members and should be pointer types.
type Subscriber interface {
	Update()
}

// Dep is the dependency set of a single reactive field.
// Subscribers are kept in registration order and registered at most once,
// reading the same field several times during one tracked read adds one entry.
type Dep struct {
	subs []Subscriber
	seen mapset.Set[Subscriber]
}

func newDep() *Dep {
	return &Dep{
		seen: mapset.NewThreadUnsafeSet[Subscriber](),
	}
}

func (d *Dep) add(sub Subscriber) bool {
	if d.seen.Contains(sub) {
		return false
	}
	d.seen.Add(sub)
	d.subs = append(d.subs, sub)
	return true
}

// Len returns the number of registered subscribers.
func (d *Dep) Len() int {
	return len(d.subs)
}

// Has reports whether sub is registered.
func (d *Dep) Has(sub Subscriber) bool {
	return d.seen.Contains(sub)
}

// Subscribers returns a copy of the subscribers in registration order.
func (d *Dep) Subscribers() []Subscriber {
	out := make([]Subscriber, len(d.subs))
	copy(out, d.subs)
	return out
}

func (d *Dep) notifyAll() {
	for _, sub := range d.subs {
		sub.Update()
	}
}
