package dom

import (
	"io"

	"github.com/valyala/quicktemplate"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Render writes n as HTML to w. Text and attribute values are escaped.
func Render(w io.Writer, n Node) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	render(qw, n)
}

func render(qw *quicktemplate.Writer, n Node) {
	switch x := n.(type) {
	case *Text:
		qw.E().S(x.data)
	case *Comment:
		qw.N().S("<!--")
		qw.N().S(x.data)
		qw.N().S("-->")
	case *Attr:
		qw.N().S(x.name)
		qw.N().S(`="`)
		qw.E().S(x.value)
		qw.N().S(`"`)
	case *Element:
		qw.N().S("<")
		qw.N().S(x.tag)
		for _, a := range x.attrs {
			qw.N().S(" ")
			render(qw, a)
		}
		qw.N().S(">")
		if voidElements[x.tag] {
			return
		}
		for _, c := range x.children {
			render(qw, c)
		}
		qw.N().S("</")
		qw.N().S(x.tag)
		qw.N().S(">")
	}
}
