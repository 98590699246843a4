package vm_test

import (
	"context"
	"fmt"

	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/vm"
)

func ExampleNew() {
	doc, _ := dom.ParseString(`<div id="app"><p v-bind:class="color">Hello {{ name }}</p><input v-model:value="name"></div>`)

	v, err := vm.New(context.Background(), doc, vm.Options{
		Root: "#app",
		Data: map[string]any{"name": "Alice", "color": "red"},
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(v.HTML())

	_ = v.Set("color", "blue")
	_ = v.Input("input", "Bob")
	fmt.Println(v.HTML())
	// Output:
	// <div id="app"><p class="red">Hello Alice</p><input></div>
	// <div id="app"><p class="blue">Hello Bob</p><input></div>
}
