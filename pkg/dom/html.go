package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/ripple/pkg/host"
)

// InnerHTML serializes e's children.
func (e *Element) InnerHTML() string {
	var buf bytes.Buffer
	for _, c := range e.children {
		// Rendering a freshly built tree to a bytes.Buffer only fails for
		// void elements with children, which the engine never produces.
		_ = html.Render(&buf, toHTML(c))
	}
	return buf.String()
}

// OuterHTML serializes e including its own tag.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, toHTML(e))
	return buf.String()
}

// TextContent concatenates the data of every descendant text node.
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.walk(func(n host.Node) bool {
		if t, ok := n.(*Text); ok {
			sb.WriteString(t.data)
		}
		return true
	})
	return sb.String()
}

func toHTML(n host.Node) *html.Node {
	switch v := n.(type) {
	case *Text:
		return &html.Node{Type: html.TextNode, Data: v.data}
	case *Element:
		out := &html.Node{
			Type:     html.ElementNode,
			Data:     v.tag,
			DataAtom: atom.Lookup([]byte(v.tag)),
		}
		for _, a := range v.attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: a.name, Val: a.value})
		}
		for _, c := range v.children {
			out.AppendChild(toHTML(c))
		}
		return out
	}
	return &html.Node{Type: html.CommentNode, Data: "foreign node"}
}

// Parse builds detached nodes from an HTML fragment, as if it were the
// content of a <div>.
func (d *Document) Parse(fragment string) ([]host.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}
	out := make([]host.Node, 0, len(nodes))
	for _, n := range nodes {
		if h := d.fromHTML(n); h != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

func (d *Document) fromHTML(n *html.Node) host.Node {
	switch n.Type {
	case html.TextNode:
		return d.NewText(n.Data)
	case html.ElementNode:
		el := d.NewElement(n.Data)
		for _, a := range n.Attr {
			el.SetAttribute(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if h := d.fromHTML(c); h != nil {
				el.AppendChild(h)
			}
		}
		return el
	}
	return nil
}
