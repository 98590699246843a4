// Package config loads mount options, a template and a script of writes from
// a YAML (or JSON) file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/delaneyj/signalbind/dom"
	"github.com/delaneyj/signalbind/reactive"
	"github.com/delaneyj/signalbind/vm"
)

var ErrNoTemplate = errors.New("signalbind: config has neither template nor markup")

type File struct {
	Root string `yaml:"root"`
	// Template is a path to an HTML file, relative to the config file
	Template string         `yaml:"template"`
	Markup   string         `yaml:"markup"`
	Strict   bool           `yaml:"strict"`
	Data     map[string]any `yaml:"data"`
	Writes   []Write        `yaml:"writes"`

	dir string
}

// Write is one scripted step: either a field write (Set) or a simulated user
// input on the element matched by Input.
type Write struct {
	Set   string `yaml:"set"`
	Input string `yaml:"input"`
	Value any    `yaml:"value"`
}

func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

func Parse(b []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(b, f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Validate() error {
	if f.Template == "" && f.Markup == "" {
		return ErrNoTemplate
	}
	for i, w := range f.Writes {
		switch {
		case w.Set != "" && w.Input != "":
			return fmt.Errorf("signalbind: write %d sets both set and input", i)
		case w.Set == "" && w.Input == "":
			return fmt.Errorf("signalbind: write %d needs set or input", i)
		}
	}
	return nil
}

func (f *File) Options() vm.Options {
	return vm.Options{
		Root:   f.Root,
		Data:   f.Data,
		Strict: f.Strict,
	}
}

// Document parses the inline markup, or the template file when no markup is set.
func (f *File) Document() (*dom.Document, error) {
	if f.Markup != "" {
		return dom.ParseString(f.Markup)
	}
	path := f.Template
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dir, path)
	}
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer r.Close()
	return dom.Parse(r)
}

// Apply runs the scripted writes in order and stops at the first failure.
func (f *File) Apply(v *vm.VM) error {
	for i, w := range f.Writes {
		var err error
		if w.Set != "" {
			err = v.Set(w.Set, w.Value)
		} else {
			err = v.Input(w.Input, reactive.Display(w.Value))
		}
		if err != nil {
			return fmt.Errorf("write %d: %w", i, err)
		}
	}
	return nil
}

// ParseAssignment splits "key=value". The value is decoded as a YAML scalar,
// so "3" becomes an int and "true" a bool; anything else stays a string.
func ParseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("signalbind: assignment %q is not key=value", s)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return key, raw, nil
	}
	switch v.(type) {
	case nil:
		if raw == "" {
			return key, "", nil
		}
		return key, nil, nil
	case map[string]any, []any:
		return key, raw, nil
	}
	return key, v, nil
}
