package vm_test

import (
	"context"
	"testing"

	"github.com/delaneyj/signalbind/compiler"
	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/reactive"
	"github.com/delaneyj/signalbind/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mount(t *testing.T, markup string, opts vm.Options) *vm.VM {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	v, err := vm.New(context.Background(), doc, opts)
	require.NoError(t, err)
	return v
}

func TestGreetingFollowsName(t *testing.T) {
	v := mount(t, `<div id="app">Hello {{ name }}</div>`, vm.Options{
		Root: "#app",
		Data: map[string]any{"name": "Alice"},
	})
	assert.Equal(t, `<div id="app">Hello Alice</div>`, v.HTML())

	require.NoError(t, v.Set("name", "Bob"))
	assert.Equal(t, `<div id="app">Hello Bob</div>`, v.HTML())
}

func TestBindClassFollowsColor(t *testing.T) {
	v := mount(t, `<div id="app"><p v-bind:class="color">x</p></div>`, vm.Options{
		Root: "#app",
		Data: map[string]any{"color": "red"},
	})
	assert.Equal(t, `<div id="app"><p class="red">x</p></div>`, v.HTML())

	require.NoError(t, v.Set("color", "blue"))
	assert.Equal(t, `<div id="app"><p class="blue">x</p></div>`, v.HTML())
}

func TestModelInputWritesField(t *testing.T) {
	v := mount(t, `<form id="app"><input name="t" v-model:value="text"></form>`, vm.Options{
		Root: "#app",
		Data: map[string]any{"text": ""},
	})
	assert.Equal(t, `<form id="app"><input name="t"></form>`, v.HTML())

	require.NoError(t, v.Input(`input[name="t"]`, "hi"))
	got, ok := v.Get("text")
	assert.True(t, ok)
	assert.Equal(t, "hi", got)
}

func TestSameFieldBoundTwice(t *testing.T) {
	v := mount(t, `<main><p>{{count}}</p><p>{{count}}</p></main>`, vm.Options{
		Root: "main",
		Data: map[string]any{"count": 0},
	})
	before := v.Fingerprint()

	require.NoError(t, v.Set("count", 5))
	html, fp := v.Render()
	assert.Equal(t, `<main><p>5</p><p>5</p></main>`, html)
	assert.NotEqual(t, before, fp)
	assert.Equal(t, map[string]int{"count": 2}, v.Subscribers())
}

func TestNoopWriteKeepsFingerprint(t *testing.T) {
	v := mount(t, `<p>{{ a }}</p>`, vm.Options{Data: map[string]any{"a": "x"}})
	before := v.Fingerprint()
	require.NoError(t, v.Set("a", "x"))
	assert.Equal(t, before, v.Fingerprint())
}

func TestRootDefaultsToBody(t *testing.T) {
	v := mount(t, `<p>{{ a }}</p><p>{{ b }}</p>`, vm.Options{
		Data: map[string]any{"a": 1, "b": 2},
	})
	assert.Equal(t, `<p>1</p><p>2</p>`, v.HTML())
	assert.Len(t, v.Bindings(), 2)
}

func TestBindingOutsideRootIsIgnored(t *testing.T) {
	v := mount(t, `<p>{{ a }}</p><div id="app">{{ a }}</div>`, vm.Options{
		Root: "#app",
		Data: map[string]any{"a": "A"},
	})
	assert.Equal(t, `<p>{{ a }}</p><div id="app">A</div>`, v.HTML())
}

func TestRootNotFound(t *testing.T) {
	doc, err := dom.ParseString(`<div></div>`)
	require.NoError(t, err)

	_, err = vm.New(context.Background(), doc, vm.Options{Root: "#nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrRootNotFound)

	var ce *vm.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "root", ce.Option)
	assert.Equal(t, "#nope", ce.Value)

	_, err = vm.New(context.Background(), doc, vm.Options{Root: "[["})
	require.ErrorAs(t, err, &ce)
}

func TestStrictMount(t *testing.T) {
	doc, err := dom.ParseString(`<a v-bind:href="link">{{ label }}</a>`)
	require.NoError(t, err)

	v, err := vm.New(context.Background(), doc, vm.Options{
		Strict: true,
		Data:   map[string]any{"label": "home"},
	})
	require.Error(t, err)
	var be *compiler.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "link", be.Key)

	require.NotNil(t, v)
	assert.Equal(t, `<a href="">home</a>`, v.HTML())
}

func TestInputErrors(t *testing.T) {
	v := mount(t, `<input v-model:value="x">`, vm.Options{Data: map[string]any{"x": ""}})

	err := v.Input("textarea", "a")
	assert.ErrorIs(t, err, vm.ErrElementNotFound)

	assert.ErrorIs(t, v.Set("y", 1), reactive.ErrUnknownField)
}

type countingMeter struct {
	updates int
}

func (m *countingMeter) FieldWritten(string, int) {}
func (m *countingMeter) WriteSkipped(string)      {}
func (m *countingMeter) WatcherUpdated(string)    { m.updates++ }

func TestMeterIsWired(t *testing.T) {
	m := &countingMeter{}
	v := mount(t, `<p>{{ a }}</p><i>{{ a }}</i>`, vm.Options{
		Data:  map[string]any{"a": 1},
		Meter: m,
	})
	require.NoError(t, v.Set("a", 2))
	assert.Equal(t, 2, m.updates)
}
