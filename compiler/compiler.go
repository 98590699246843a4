// Package compiler walks a display subtree once and wires it to a reactive
// data object: text interpolations and v-bind attributes get watchers,
// v-model attributes get input listeners.
package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/reactive"
)

const (
	DirectiveBind  = "v-bind"
	DirectiveModel = "v-model"

	InputEvent = "input"
)

// first {{ ... }} in a text node, anything around it is kept as literal text
var interpolation = regexp.MustCompile(`\{\{(.*?)\}\}`)

type Kind int

const (
	KindText Kind = iota
	KindAttr
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAttr:
		return DirectiveBind
	case KindModel:
		return DirectiveModel
	default:
		return "unknown"
	}
}

// Binding records one wired site.
type Binding struct {
	Kind Kind
	Key  string
	Path string
	Node dom.Node
	// nil for v-model, which only writes into the data object
	Watcher *reactive.Watcher
}

type Result struct {
	Bindings []Binding
}

func (r *Result) Count(kind Kind) int {
	n := 0
	for _, b := range r.Bindings {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// Keys returns, per field, how many sites are bound to it.
func (r *Result) Keys() map[string]int {
	out := map[string]int{}
	for _, b := range r.Bindings {
		out[b.Key]++
	}
	return out
}

type Option func(*compiler)

// WithStrict makes directives that reference unknown fields fail the compile.
// Every other site is still bound.
func WithStrict(strict bool) Option {
	return func(c *compiler) {
		c.strict = strict
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type compiler struct {
	data   *reactive.Data
	strict bool
	logger *slog.Logger
	result *Result
	errs   []error
}

// Compile binds the subtree under root to data. It must be called once per
// subtree, directive attributes are consumed by the first call.
func Compile(root *dom.Element, data *reactive.Data, opts ...Option) (*Result, error) {
	if root == nil {
		return nil, errors.New("signalbind: compile: nil root")
	}
	c := &compiler{
		data:   data,
		logger: slog.Default(),
		result: &Result{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.walk(root)

	if len(c.errs) > 0 {
		return c.result, fmt.Errorf("compile: %w", errors.Join(c.errs...))
	}
	return c.result, nil
}

func (c *compiler) walk(el *dom.Element) {
	for _, child := range el.Children() {
		switch n := child.(type) {
		case *dom.Text:
			c.compileText(n)
		case *dom.Element:
			c.walk(n)
		}
	}

	for _, attr := range el.Attributes() {
		names := strings.Split(attr.Name(), ":")
		if len(names) < 2 {
			continue
		}
		command, arg := names[0], names[1]
		switch command {
		case DirectiveBind:
			c.compileBind(el, attr, arg)
		case DirectiveModel:
			c.compileModel(el, attr)
		}
	}
}

func (c *compiler) compileText(n *dom.Text) {
	payload := n.NodeValue()
	m := interpolation.FindStringSubmatchIndex(payload)
	if m == nil {
		return
	}
	key := strings.TrimSpace(payload[m[2]:m[3]])
	target := &textTarget{
		node:   n,
		prefix: payload[:m[0]],
		suffix: payload[m[1]:],
	}

	if !c.data.Has(key) {
		c.logger.Debug("interpolation references unknown field", "key", key, "path", dom.Path(n))
	}
	v, _ := c.data.Peek(key)
	target.SetNodeValue(reactive.Display(v))

	w := reactive.NewWatcher(c.data, key, target)
	c.result.Bindings = append(c.result.Bindings, Binding{
		Kind:    KindText,
		Key:     key,
		Path:    dom.Path(n),
		Node:    n,
		Watcher: w,
	})
}

func (c *compiler) compileBind(el *dom.Element, attr *dom.Attr, name string) {
	key := attr.NodeValue()
	if name == "" {
		c.logger.Debug("v-bind without attribute name", "path", dom.Path(attr))
		return
	}
	c.checkField(KindAttr, key, attr)

	node := dom.NewAttr(name)
	v, _ := c.data.Peek(key)
	node.SetNodeValue(reactive.Display(v))
	el.SetAttributeNode(node)
	el.RemoveAttribute(attr.Name())

	w := reactive.NewWatcher(c.data, key, node)
	c.result.Bindings = append(c.result.Bindings, Binding{
		Kind:    KindAttr,
		Key:     key,
		Path:    dom.Path(node),
		Node:    node,
		Watcher: w,
	})
}

func (c *compiler) compileModel(el *dom.Element, attr *dom.Attr) {
	key := attr.NodeValue()
	c.checkField(KindModel, key, attr)

	data, logger := c.data, c.logger
	path := dom.Path(el)
	el.AddEventListener(InputEvent, func(ev dom.Event) {
		if err := data.Set(key, ev.Target.Value()); err != nil {
			logger.Warn("v-model write failed", "key", key, "path", path, "error", err)
		}
	})
	el.RemoveAttribute(attr.Name())

	c.result.Bindings = append(c.result.Bindings, Binding{
		Kind: KindModel,
		Key:  key,
		Path: path,
		Node: el,
	})
}

func (c *compiler) checkField(kind Kind, key string, attr *dom.Attr) {
	if c.data.Has(key) {
		return
	}
	path := dom.Path(attr)
	c.logger.Debug("directive references unknown field", "kind", kind, "key", key, "path", path)
	if c.strict {
		c.errs = append(c.errs, &BindingError{
			Kind: kind,
			Key:  key,
			Path: path,
			Err:  reactive.ErrUnknownField,
		})
	}
}

// textTarget renders a value into the interpolation slot of a text node.
type textTarget struct {
	node           *dom.Text
	prefix, suffix string
}

func (t *textTarget) SetNodeValue(v string) {
	t.node.SetNodeValue(t.prefix + v + t.suffix)
}
