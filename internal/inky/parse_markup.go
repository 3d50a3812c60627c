package inky

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// node is a lenient markup tree. Unlike html.Parse, it never re-parents
// content (no foster parenting, no implied tags), so Handlebars blocks placed
// between table rows survive untouched.
type node struct {
	tag      string // lowercased element name, "" for raw nodes
	attrs    []html.Attribute
	raw      string // raw text for raw nodes, raw start tag for elements
	rawEnd   string // raw end tag, "" if the element was never closed
	parent   *node
	children []*node
	dirty    bool // attrs were modified, start tag must be rebuilt
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func parseMarkup(src []byte) (*node, error) {
	root := &node{}
	cur := root

	z := html.NewTokenizer(bytes.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return root, nil
			}
			return nil, fmt.Errorf("error tokenizing markup: %v", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			n := &node{tag: tok.Data, attrs: tok.Attr, raw: raw, parent: cur}
			cur.children = append(cur.children, n)
			if tt == html.StartTagToken && !voidElements[tok.Data] {
				cur = n
			}

		case html.EndTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			open := findOpenAncestor(cur, string(name))
			if open == nil {
				// stray end tag, keep it verbatim
				cur.children = append(cur.children, &node{raw: raw, parent: cur})
				continue
			}
			open.rawEnd = raw
			cur = open.parent

		default:
			cur.children = append(cur.children, &node{raw: string(z.Raw()), parent: cur})
		}
	}
}

func findOpenAncestor(cur *node, tag string) *node {
	for p := cur; p != nil && p.parent != nil; p = p.parent {
		if p.tag == tag {
			return p
		}
	}
	return nil
}

func (n *node) getAttr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (n *node) setAttr(key, val string) {
	n.dirty = true
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs[i].Val = val
			return
		}
	}
	n.attrs = append(n.attrs, html.Attribute{Key: key, Val: val})
}

func (n *node) addClass(class string) {
	existing, _ := n.getAttr("class")
	if existing == "" {
		n.setAttr("class", class)
		return
	}
	n.setAttr("class", existing+" "+class)
}

func (n *node) hasClass(class string) bool {
	existing, _ := n.getAttr("class")
	for _, c := range bytes.Fields([]byte(existing)) {
		if string(c) == class {
			return true
		}
	}
	return false
}

func (n *node) isElement() bool {
	return n.tag != ""
}

// contains reports whether any descendant of n is a tag element.
func (n *node) contains(tag string) bool {
	for _, c := range n.children {
		if c.tag == tag || c.contains(tag) {
			return true
		}
	}
	return false
}

func (n *node) walk(fn func(*node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}
