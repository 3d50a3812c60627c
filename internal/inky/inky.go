// Package inky expands Foundation for Emails shorthand tags (<container>,
// <row>, <columns>, <button>, ...) into the table markup that email clients
// can render. Everything that is not a shorthand tag is written back exactly
// as it was read.
package inky

import (
	"strings"

	"golang.org/x/net/html"
)

const columnCount = 12

type component func(e *expander, n *node) string

var components map[string]component

func init() {
	components = map[string]component{
		"container":  renderContainer,
		"row":        renderRow,
		"columns":    renderColumns,
		"button":     renderButton,
		"callout":    renderCallout,
		"spacer":     renderSpacer,
		"wrapper":    renderWrapper,
		"menu":       renderMenu,
		"item":       renderItem,
		"center":     renderCenter,
		"h-line":     renderHLine,
		"block-grid": renderBlockGrid,
	}
}

type expander struct{}

// Expand rewrites every shorthand tag in src into its full markup.
func Expand(src []byte) ([]byte, error) {
	root, err := parseMarkup(src)
	if err != nil {
		return nil, err
	}
	e := &expander{}
	return []byte(e.inner(root)), nil
}

func (e *expander) render(sb *strings.Builder, n *node) {
	if !n.isElement() {
		sb.WriteString(n.raw)
		return
	}
	if fn, ok := components[n.tag]; ok {
		sb.WriteString(fn(e, n))
		return
	}
	if n.dirty {
		sb.WriteString(startTag(n.tag, n.attrs))
	} else {
		sb.WriteString(n.raw)
	}
	for _, c := range n.children {
		e.render(sb, c)
	}
	sb.WriteString(n.rawEnd)
}

func (e *expander) inner(n *node) string {
	var sb strings.Builder
	for _, c := range n.children {
		e.render(&sb, c)
	}
	return sb.String()
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&#34;")

func startTag(tag string, attrs []html.Attribute) string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(tag)
	for _, a := range attrs {
		writeAttr(&sb, a)
	}
	sb.WriteString(">")
	return sb.String()
}

func writeAttr(sb *strings.Builder, a html.Attribute) {
	sb.WriteString(" ")
	sb.WriteString(a.Key)
	sb.WriteString(`="`)
	sb.WriteString(attrEscaper.Replace(a.Val))
	sb.WriteString(`"`)
}

// passthrough renders every attribute of n except class and skip.
func passthrough(n *node, skip ...string) string {
	var sb strings.Builder
outer:
	for _, a := range n.attrs {
		if a.Key == "class" {
			continue
		}
		for _, s := range skip {
			if a.Key == s {
				continue outer
			}
		}
		writeAttr(&sb, a)
	}
	return sb.String()
}

// classSuffix returns the element's own classes, prefixed by a space.
func classSuffix(n *node) string {
	class, _ := n.getAttr("class")
	class = strings.TrimSpace(class)
	if class == "" {
		return ""
	}
	return " " + class
}
