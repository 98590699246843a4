package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a tree rooted at a body element.
type Document struct {
	Body *Element
}

func NewDocument() *Document {
	return &Document{Body: NewElement("body")}
}

// Parse reads an HTML fragment into a new document body.
func Parse(r io.Reader) (*Document, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := NewDocument()
	for _, n := range nodes {
		if c := fromHTML(n); c != nil {
			doc.Body.AppendChild(c)
		}
	}
	return doc, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func fromHTML(n *html.Node) Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.CommentNode:
		return NewComment(n.Data)
	case html.ElementNode:
		el := NewElement(n.Data)
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			el.SetAttribute(name, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				el.AppendChild(child)
			}
		}
		return el
	default:
		return nil
	}
}

// toHTML mirrors the element tree of e into x/net/html nodes so selectors can
// run against it. index maps every mirrored node back to its element.
func toHTML(e *Element, index map[*html.Node]*Element) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.tag,
		DataAtom: atom.Lookup([]byte(e.tag)),
	}
	for _, a := range e.attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.name, Val: a.value})
	}
	index[n] = e
	for _, c := range e.children {
		if child, ok := c.(*Element); ok {
			n.AppendChild(toHTML(child, index))
		}
	}
	return n
}

// QuerySelector returns the first descendant of the body matching the CSS
// selector, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	return QuerySelector(d.Body, selector)
}

func QuerySelector(root *Element, selector string) (*Element, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	index := map[*html.Node]*Element{}
	mirror := toHTML(root, index)
	found := cascadia.Query(mirror, sel)
	if found == nil {
		return nil, nil
	}
	return index[found], nil
}

func (d *Document) GetElementByID(id string) *Element {
	var found *Element
	Walk(d.Body, func(n Node) bool {
		if found != nil {
			return false
		}
		if el, ok := n.(*Element); ok && el != d.Body && el.ID() == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// HTML renders the body's children.
func (d *Document) HTML() string {
	return InnerHTML(d.Body)
}

// Fingerprint hashes the rendered document, two documents with the same
// markup have the same fingerprint.
func (d *Document) Fingerprint() uint64 {
	return xxhash.Sum64String(d.HTML())
}

func InnerHTML(e *Element) string {
	var buf bytes.Buffer
	for _, c := range e.children {
		Render(&buf, c)
	}
	return buf.String()
}

func OuterHTML(n Node) string {
	var buf bytes.Buffer
	Render(&buf, n)
	return buf.String()
}

// Path describes where n sits under its topmost ancestor, e.g.
// "div[1]/p[2]/text()[1]". Indexes are 1-based and counted per node kind.
func Path(n Node) string {
	var parts []string
	for cur := n; cur != nil; {
		parent := cur.ParentElement()
		if a, ok := cur.(*Attr); ok {
			parts = append(parts, "@"+a.name)
			if a.owner == nil {
				break
			}
			cur = a.owner
			continue
		}
		if parent == nil {
			break
		}
		name := stepName(cur)
		idx := 0
		for _, sib := range parent.children {
			if stepName(sib) == name {
				idx++
			}
			if sib == cur {
				break
			}
		}
		parts = append(parts, fmt.Sprintf("%s[%d]", name, idx))
		cur = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func stepName(n Node) string {
	switch x := n.(type) {
	case *Element:
		return x.tag
	case *Text:
		return "text()"
	case *Comment:
		return "comment()"
	default:
		return "node()"
	}
}
