package inliner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Selectors that depend on user interaction or generated content can never
// be expressed in a style attribute.
var dynamicSelectorParts = []string{
	":hover", ":active", ":focus", ":visited", ":link", ":target",
	"::", ":before", ":after", ":first-line", ":first-letter",
}

type styleRule struct {
	sel   cascadia.Sel
	spec  cascadia.Specificity
	order int
	decls []*css.Declaration
}

type candidate struct {
	decl      *css.Declaration
	important bool
	inline    bool
	spec      cascadia.Specificity
	order     int
}

// outranks reports whether b wins over a in the cascade.
func outranks(a, b candidate) bool {
	if a.important != b.important {
		return b.important
	}
	if a.inline != b.inline {
		return b.inline
	}
	if a.spec != b.spec {
		return a.spec.Less(b.spec)
	}
	return a.order < b.order
}

// parseRules returns every statically matchable top-level rule, one entry
// per selector, in source order.
func parseRules(src string) ([]styleRule, error) {
	sheet, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("error parsing stylesheet: %v", err)
	}

	var rules []styleRule
	order := 0
	for _, rule := range sheet.Rules {
		if rule.Kind != css.QualifiedRule || len(rule.Declarations) == 0 {
			continue
		}
		for _, selector := range rule.Selectors {
			if isDynamicSelector(selector) {
				continue
			}
			sel, err := cascadia.Parse(selector)
			if err != nil || sel.PseudoElement() != "" {
				continue
			}
			rules = append(rules, styleRule{
				sel:   sel,
				spec:  sel.Specificity(),
				order: order,
				decls: rule.Declarations,
			})
			order++
		}
	}
	return rules, nil
}

func isDynamicSelector(selector string) bool {
	lower := strings.ToLower(selector)
	for _, part := range dynamicSelectorParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// applyRules writes the cascaded declarations of every matching rule into
// the style attributes of doc.
func applyRules(doc *html.Node, rules []styleRule) {
	matched := map[*html.Node][]candidate{}
	var nodes []*html.Node

	for _, rule := range rules {
		for _, n := range cascadia.QueryAll(doc, rule.sel) {
			if _, ok := matched[n]; !ok {
				nodes = append(nodes, n)
			}
			for _, d := range rule.decls {
				matched[n] = append(matched[n], candidate{
					decl:      d,
					important: d.Important,
					spec:      rule.spec,
					order:     rule.order,
				})
			}
		}
	}

	for _, n := range nodes {
		cands := matched[n]
		inline, ok := inlineCandidates(n)
		if !ok {
			continue
		}
		cands = append(cands, inline...)
		sort.SliceStable(cands, func(i, j int) bool { return outranks(cands[i], cands[j]) })

		props, winners := resolve(cands)
		setAttr(n, "style", formatDeclarations(props, winners))
		applyAttributeHints(n, winners)
	}
}

// inlineCandidates parses an element's existing style attribute. ok is false
// when the attribute cannot be parsed, in which case the element is left as
// authored.
func inlineCandidates(n *html.Node) ([]candidate, bool) {
	style, has := getAttr(n, "style")
	if !has || strings.TrimSpace(style) == "" {
		return nil, true
	}
	// the last declaration loses its value without a terminator
	style = strings.TrimSpace(style)
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil, false
	}
	out := make([]candidate, 0, len(decls))
	for i, d := range decls {
		out = append(out, candidate{decl: d, important: d.Important, inline: true, order: i})
	}
	return out, true
}

// resolve applies sorted candidates in cascade order. A property keeps the
// position where it first appeared and the value of the last winner.
func resolve(sorted []candidate) ([]string, map[string]*css.Declaration) {
	var props []string
	winners := map[string]*css.Declaration{}
	for _, c := range sorted {
		prop := strings.ToLower(c.decl.Property)
		if _, ok := winners[prop]; !ok {
			props = append(props, prop)
		}
		winners[prop] = c.decl
	}
	return props, winners
}

func formatDeclarations(props []string, winners map[string]*css.Declaration) string {
	parts := make([]string, 0, len(props))
	for _, prop := range props {
		d := winners[prop]
		val := strings.TrimSpace(d.Value)
		if d.Important {
			val += " !important"
		}
		parts = append(parts, prop+": "+val)
	}
	return strings.Join(parts, "; ")
}

var (
	sizedElements = map[string]bool{"table": true, "td": true, "th": true, "img": true}
	tableElements = map[string]bool{"table": true, "td": true, "th": true}
	tableHints    = [][2]string{
		{"text-align", "align"},
		{"vertical-align", "valign"},
		{"background-color", "bgcolor"},
	}
)

// applyAttributeHints mirrors width, height, alignment and background onto
// the legacy attributes that some email clients read instead of CSS.
// Attributes already present are never overwritten.
func applyAttributeHints(n *html.Node, winners map[string]*css.Declaration) {
	if sizedElements[n.Data] {
		for _, prop := range []string{"width", "height"} {
			d, ok := winners[prop]
			if !ok {
				continue
			}
			val := strings.TrimSuffix(strings.TrimSpace(d.Value), "px")
			if val == "" || val == "auto" {
				continue
			}
			setAttrIfAbsent(n, prop, val)
		}
	}
	if tableElements[n.Data] {
		for _, hint := range tableHints {
			if d, ok := winners[hint[0]]; ok && strings.TrimSpace(d.Value) != "" {
				setAttrIfAbsent(n, hint[1], strings.TrimSpace(d.Value))
			}
		}
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func setAttrIfAbsent(n *html.Node, key, val string) {
	if _, ok := getAttr(n, key); ok {
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
