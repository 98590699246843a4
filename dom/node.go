// Package dom is a small in-memory display tree: elements with ordered
// attributes and children, text and comment nodes, and input events.
package dom

type NodeType int

const (
	ElementNode   NodeType = 1
	AttributeNode NodeType = 2
	TextNode      NodeType = 3
	CommentNode   NodeType = 8
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

type Node interface {
	NodeType() NodeType
	ParentElement() *Element
	setParent(*Element)
}

// Text is a text node. Its payload is rewritten by bindings.
type Text struct {
	parent *Element
	data   string
}

func NewText(data string) *Text {
	return &Text{data: data}
}

func (t *Text) NodeType() NodeType        { return TextNode }
func (t *Text) ParentElement() *Element   { return t.parent }
func (t *Text) setParent(p *Element)      { t.parent = p }
func (t *Text) NodeValue() string         { return t.data }
func (t *Text) SetNodeValue(value string) { t.data = value }

type Comment struct {
	parent *Element
	data   string
}

func NewComment(data string) *Comment {
	return &Comment{data: data}
}

func (c *Comment) NodeType() NodeType      { return CommentNode }
func (c *Comment) ParentElement() *Element { return c.parent }
func (c *Comment) setParent(p *Element)    { c.parent = p }
func (c *Comment) NodeValue() string       { return c.data }

// Attr is an attribute node owned by at most one element.
type Attr struct {
	owner *Element
	name  string
	value string
}

func NewAttr(name string) *Attr {
	return &Attr{name: name}
}

func (a *Attr) NodeType() NodeType        { return AttributeNode }
func (a *Attr) ParentElement() *Element   { return nil }
func (a *Attr) setParent(*Element)        {}
func (a *Attr) Name() string              { return a.name }
func (a *Attr) OwnerElement() *Element    { return a.owner }
func (a *Attr) NodeValue() string         { return a.value }
func (a *Attr) SetNodeValue(value string) { a.value = value }

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if el, ok := n.(*Element); ok {
		for _, c := range el.children {
			Walk(c, fn)
		}
	}
}
