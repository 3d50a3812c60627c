package inky

import (
	"fmt"
	"strconv"
)

const expanderCell = `<th class="expander"></th>`

func renderContainer(e *expander, n *node) string {
	return fmt.Sprintf(
		`<table align="center" class="container%s"%s><tbody><tr><td>%s</td></tr></tbody></table>`,
		classSuffix(n), passthrough(n), e.inner(n),
	)
}

func renderRow(e *expander, n *node) string {
	return fmt.Sprintf(
		`<table class="row%s"%s><tbody><tr>%s</tr></tbody></table>`,
		classSuffix(n), passthrough(n), e.inner(n),
	)
}

func renderColumns(e *expander, n *node) string {
	siblings := columnSiblings(n)
	count := len(siblings)
	if count == 0 {
		count = 1
	}

	small, hasSmall := n.getAttr("small")
	if !hasSmall || small == "" {
		small = strconv.Itoa(columnCount)
	}
	large, hasLarge := n.getAttr("large")
	if !hasLarge || large == "" {
		if hasSmall && small != "" {
			large = small
		} else {
			large = strconv.Itoa(columnCount / count)
		}
	}

	class := "small-" + small + " large-" + large + " columns"
	if len(siblings) > 0 && siblings[0] == n {
		class += " first"
	}
	if len(siblings) > 0 && siblings[len(siblings)-1] == n {
		class += " last"
	}
	class += classSuffix(n)

	expander := ""
	_, noExpander := n.getAttr("no-expander")
	if large == strconv.Itoa(columnCount) && !noExpander && !n.contains("row") {
		expander = expanderCell
	}

	return fmt.Sprintf(
		`<th class="%s"%s><table><tbody><tr><th>%s</th>%s</tr></tbody></table></th>`,
		class, passthrough(n, "small", "large", "no-expander"), e.inner(n), expander,
	)
}

func columnSiblings(n *node) []*node {
	if n.parent == nil {
		return nil
	}
	var out []*node
	for _, c := range n.parent.children {
		if c.tag == "columns" {
			out = append(out, c)
		}
	}
	return out
}

func renderButton(e *expander, n *node) string {
	inner := e.inner(n)
	expanded := n.hasClass("expand") || n.hasClass("expanded")

	if href, ok := n.getAttr("href"); ok {
		target := ""
		if t, ok := n.getAttr("target"); ok {
			target = ` target="` + attrEscaper.Replace(t) + `"`
		}
		anchorAttrs := ""
		if expanded {
			anchorAttrs = ` align="center" class="float-center"`
		}
		inner = fmt.Sprintf(`<a href="%s"%s%s>%s</a>`, attrEscaper.Replace(href), target, anchorAttrs, inner)
	}

	if expanded {
		inner = `<center data-parsed="">` + inner + `</center>`
	}

	trailing := ""
	if expanded {
		trailing = `<td class="expander"></td>`
	}

	return fmt.Sprintf(
		`<table class="button%s"%s><tbody><tr><td><table><tbody><tr><td>%s</td></tr></tbody></table></td>%s</tr></tbody></table>`,
		classSuffix(n), passthrough(n, "href", "target"), inner, trailing,
	)
}

func renderCallout(e *expander, n *node) string {
	return fmt.Sprintf(
		`<table class="callout"%s><tbody><tr><th class="callout-inner%s">%s</th>%s</tr></tbody></table>`,
		passthrough(n), classSuffix(n), e.inner(n), expanderCell,
	)
}

const defaultSpacerSize = "16"

func spacerTable(class, size, attrs string) string {
	return fmt.Sprintf(
		`<table class="%s"%s><tbody><tr><td height="%s" style="font-size:%spx;line-height:%spx;">&nbsp;</td></tr></tbody></table>`,
		class, attrs, size, size, size,
	)
}

func renderSpacer(_ *expander, n *node) string {
	attrs := passthrough(n, "size", "size-sm", "size-lg")
	sm, hasSm := n.getAttr("size-sm")
	lg, hasLg := n.getAttr("size-lg")

	if hasSm || hasLg {
		out := ""
		if hasSm {
			out += spacerTable("spacer hide-for-large"+classSuffix(n), sm, attrs)
		}
		if hasLg {
			out += spacerTable("spacer show-for-large"+classSuffix(n), lg, attrs)
		}
		return out
	}

	size, ok := n.getAttr("size")
	if !ok || size == "" {
		size = defaultSpacerSize
	}
	return spacerTable("spacer"+classSuffix(n), size, attrs)
}

func renderWrapper(e *expander, n *node) string {
	return fmt.Sprintf(
		`<table class="wrapper%s" align="center"%s><tbody><tr><td class="wrapper-inner">%s</td></tr></tbody></table>`,
		classSuffix(n), passthrough(n, "align"), e.inner(n),
	)
}

func renderMenu(e *expander, n *node) string {
	return fmt.Sprintf(
		`<table class="menu%s"%s><tbody><tr><td><table><tbody><tr>%s</tr></tbody></table></td></tr></tbody></table>`,
		classSuffix(n), passthrough(n), e.inner(n),
	)
}

func renderItem(e *expander, n *node) string {
	href, _ := n.getAttr("href")
	target := ""
	if t, ok := n.getAttr("target"); ok {
		target = ` target="` + attrEscaper.Replace(t) + `"`
	}
	return fmt.Sprintf(
		`<th class="menu-item%s"%s><a href="%s"%s>%s</a></th>`,
		classSuffix(n), passthrough(n, "href", "target"), attrEscaper.Replace(href), target, e.inner(n),
	)
}

func renderCenter(e *expander, n *node) string {
	for _, c := range n.children {
		if !c.isElement() {
			continue
		}
		c.setAttr("align", "center")
		c.addClass("float-center")
	}
	n.walk(func(d *node) {
		if d.tag == "item" && !d.hasClass("float-center") {
			d.addClass("float-center")
		}
	})
	return fmt.Sprintf(`<center data-parsed=""%s>%s</center>`, passthrough(n, "data-parsed"), e.inner(n))
}

func renderHLine(_ *expander, n *node) string {
	return fmt.Sprintf(
		`<table class="h-line%s"%s><tr><th>&nbsp;</th></tr></table>`,
		classSuffix(n), passthrough(n),
	)
}

func renderBlockGrid(e *expander, n *node) string {
	up, _ := n.getAttr("up")
	return fmt.Sprintf(
		`<table class="block-grid up-%s%s"%s><tbody><tr>%s</tr></tbody></table>`,
		up, classSuffix(n), passthrough(n, "up"), e.inner(n),
	)
}
