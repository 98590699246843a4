package dom

import (
	"slices"
	"strings"
)

type Event struct {
	Type   string
	Target *Element
}

type EventListener func(Event)

type listener struct {
	fn EventListener
}

type Element struct {
	parent    *Element
	tag       string
	attrs     []*Attr
	children  []Node
	listeners map[string][]*listener
	// current control value, seeded from the value attribute
	value    string
	hasValue bool
}

func NewElement(tag string) *Element {
	return &Element{
		tag:       strings.ToLower(tag),
		listeners: map[string][]*listener{},
	}
}

func (e *Element) NodeType() NodeType      { return ElementNode }
func (e *Element) ParentElement() *Element { return e.parent }
func (e *Element) setParent(p *Element)    { e.parent = p }
func (e *Element) TagName() string         { return e.tag }

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	return slices.Clone(e.children)
}

func (e *Element) AppendChild(children ...Node) *Element {
	for _, c := range children {
		if p := c.ParentElement(); p != nil {
			p.RemoveChild(c)
		}
		c.setParent(e)
		e.children = append(e.children, c)
	}
	return e
}

func (e *Element) RemoveChild(c Node) {
	for i, child := range e.children {
		if child == c {
			e.children = slices.Delete(e.children, i, i+1)
			c.setParent(nil)
			return
		}
	}
}

// Attributes returns a copy of the attribute list in document order.
func (e *Element) Attributes() []*Attr {
	return slices.Clone(e.attrs)
}

func (e *Element) GetAttributeNode(name string) *Attr {
	for _, a := range e.attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

func (e *Element) GetAttribute(name string) (string, bool) {
	a := e.GetAttributeNode(name)
	if a == nil {
		return "", false
	}
	return a.value, true
}

func (e *Element) HasAttribute(name string) bool {
	return e.GetAttributeNode(name) != nil
}

func (e *Element) SetAttribute(name, value string) *Element {
	if a := e.GetAttributeNode(name); a != nil {
		a.value = value
		return e
	}
	a := &Attr{name: name, value: value}
	e.SetAttributeNode(a)
	return e
}

// SetAttributeNode attaches a, replacing any attribute of the same name in
// place. The replaced node is returned.
func (e *Element) SetAttributeNode(a *Attr) *Attr {
	if a.owner != nil && a.owner != e {
		a.owner.removeAttributeNode(a)
	}
	a.owner = e
	for i, old := range e.attrs {
		if old.name == a.name {
			if old == a {
				return nil
			}
			e.attrs[i] = a
			old.owner = nil
			return old
		}
	}
	e.attrs = append(e.attrs, a)
	return nil
}

func (e *Element) RemoveAttribute(name string) {
	if a := e.GetAttributeNode(name); a != nil {
		e.removeAttributeNode(a)
	}
}

func (e *Element) removeAttributeNode(a *Attr) {
	for i, old := range e.attrs {
		if old == a {
			e.attrs = slices.Delete(e.attrs, i, i+1)
			a.owner = nil
			return
		}
	}
}

func (e *Element) ID() string {
	id, _ := e.GetAttribute("id")
	return id
}

// Value is the current control value. Until the control is edited it mirrors
// the value attribute.
func (e *Element) Value() string {
	if e.hasValue {
		return e.value
	}
	v, _ := e.GetAttribute("value")
	return v
}

func (e *Element) SetValue(v string) {
	e.value = v
	e.hasValue = true
}

// AddEventListener registers fn for events of type typ and returns a function
// that removes it again.
func (e *Element) AddEventListener(typ string, fn EventListener) (remove func()) {
	l := &listener{fn: fn}
	e.listeners[typ] = append(e.listeners[typ], l)
	return func() {
		ls := e.listeners[typ]
		for i, x := range ls {
			if x == l {
				e.listeners[typ] = slices.Delete(ls, i, i+1)
				return
			}
		}
	}
}

func (e *Element) ListenerCount(typ string) int {
	return len(e.listeners[typ])
}

// DispatchEvent calls the listeners registered for ev.Type in registration order.
func (e *Element) DispatchEvent(ev Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	for _, l := range slices.Clone(e.listeners[ev.Type]) {
		l.fn(ev)
	}
}

// Input simulates the user typing value into the control.
func (e *Element) Input(value string) {
	e.SetValue(value)
	e.DispatchEvent(Event{Type: "input", Target: e})
}

// TextContent concatenates the payload of every descendant text node.
func (e *Element) TextContent() string {
	var sb strings.Builder
	Walk(e, func(n Node) bool {
		if t, ok := n.(*Text); ok {
			sb.WriteString(t.data)
		}
		return true
	})
	return sb.String()
}
