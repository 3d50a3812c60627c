// Package inliner prepares compiled pages for email clients: stylesheet
// rules are moved into style attributes, hover and breakpoint styles are
// injected as literal style blocks, and the result is minified.
package inliner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/tdewolff/minify/v2"
	cssmin "github.com/tdewolff/minify/v2/css"
	htmlmin "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	hoverMarker     = "hover:css"
	fragmentsMarker = "inject:css"
	endMarker       = "endinject"
)

type Inliner struct {
	cfg *common.Config
	m   *minify.M
}

func NewInliner(cfg *common.Config) *Inliner {
	m := minify.New()
	m.AddFunc("text/css", cssmin.Minify)
	m.Add("text/html", &htmlmin.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepWhitespace:      true,
		KeepDefaultAttrVals: true,
	})
	return &Inliner{cfg: cfg, m: m}
}

type injection struct {
	rules     []styleRule
	cssName   string
	hover     string
	fragments []string
}

// InlineAll extracts the breakpoint fragments, then inlines every HTML file
// in the output directory. A missing stylesheet, hover file or fragment
// fails the whole stage.
func (in *Inliner) InlineAll(ctx context.Context) error {
	cssPath := in.cfg.GetDistCSSFile()
	cssSrc, err := os.ReadFile(cssPath)
	if err != nil {
		return fmt.Errorf("error reading stylesheet: %v", err)
	}

	if err := ExtractFragments(cssPath, string(cssSrc), in.cfg.Breakpoints); err != nil {
		return err
	}

	hover, err := os.ReadFile(in.cfg.Path(in.cfg.HoverCSS))
	if err != nil {
		return fmt.Errorf("error reading hover styles: %v", err)
	}

	inj := &injection{cssName: filepath.Base(cssPath), hover: string(hover)}
	for _, bp := range in.cfg.Breakpoints {
		b, err := os.ReadFile(FragmentPath(cssPath, bp.Token))
		if err != nil {
			return fmt.Errorf("error reading %s fragment: %v", bp.Token, err)
		}
		inj.fragments = append(inj.fragments, string(b))
	}

	inj.rules, err = parseRules(string(cssSrc))
	if err != nil {
		return err
	}

	distDir := in.cfg.GetDistDir()
	files, err := doublestar.Glob(os.DirFS(distDir), "**/*.html")
	if err != nil {
		return fmt.Errorf("error finding html files: %v", err)
	}

	var errs []error
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(distDir, filepath.FromSlash(rel))
		if err := in.inlineFile(path, inj); err != nil {
			in.cfg.Logger.Errorf("error inlining %s: %v", rel, err)
			errs = append(errs, fmt.Errorf("error inlining %s: %v", rel, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	in.cfg.Logger.Infof("inlined %d pages", len(files))
	return nil
}

func (in *Inliner) inlineFile(path string, inj *injection) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := in.inlineDocument(src, inj)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func (in *Inliner) inlineDocument(src []byte, inj *injection) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("error parsing html: %v", err)
	}

	removeStylesheetLinks(doc, inj.cssName)
	applyRules(doc, inj.rules)

	injectStyles(doc, hoverMarker, []string{inj.hover})
	injectStyles(doc, fragmentsMarker, inj.fragments)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("error rendering html: %v", err)
	}

	minified, err := in.m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("error minifying html: %v", err)
	}
	return escapeNonBreakingSpaces(minified), nil
}

var (
	nbspRaw    = []byte("\u00a0")
	nbspEntity = []byte("&nbsp;")
)

// escapeNonBreakingSpaces writes U+00A0 back as &nbsp; in text and
// attribute values. Style and script contents are copied untouched.
func escapeNonBreakingSpaces(doc []byte) []byte {
	if !bytes.Contains(doc, nbspRaw) {
		return doc
	}

	out := make([]byte, 0, len(doc)+64)
	z := html.NewTokenizer(bytes.NewReader(doc))
	inRawText := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		raw := z.Raw()
		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			inRawText = isRawTextTag(name)
			out = append(out, bytes.ReplaceAll(raw, nbspRaw, nbspEntity)...)
		case html.SelfClosingTagToken:
			out = append(out, bytes.ReplaceAll(raw, nbspRaw, nbspEntity)...)
		case html.EndTagToken:
			inRawText = false
			out = append(out, raw...)
		case html.TextToken:
			if inRawText {
				out = append(out, raw...)
			} else {
				out = append(out, bytes.ReplaceAll(raw, nbspRaw, nbspEntity)...)
			}
		default:
			out = append(out, raw...)
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "style", "script":
		return true
	}
	return false
}

func removeStylesheetLinks(doc *html.Node, cssName string) {
	var doomed []*html.Node
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Link {
			return
		}
		rel, _ := getAttr(n, "rel")
		href, _ := getAttr(n, "href")
		if !strings.Contains(strings.ToLower(rel), "stylesheet") {
			return
		}
		if pathBase(href) == cssName {
			doomed = append(doomed, n)
		}
	})
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
}

func pathBase(href string) string {
	if i := strings.IndexAny(href, "?#"); i != -1 {
		href = href[:i]
	}
	if i := strings.LastIndex(href, "/"); i != -1 {
		href = href[i+1:]
	}
	return href
}

// injectStyles places one style block per non-empty source between the
// marker comment and its endinject comment, replacing whatever was there.
// Without a marker the blocks are appended to the head.
func injectStyles(doc *html.Node, marker string, sources []string) {
	var blocks []*html.Node
	for _, s := range sources {
		if strings.TrimSpace(s) == "" {
			continue
		}
		blocks = append(blocks, styleElement(s))
	}

	start := findComment(doc, marker)
	if start == nil {
		head := findElement(doc, atom.Head)
		if head == nil {
			head = doc
		}
		for _, b := range blocks {
			head.AppendChild(b)
		}
		return
	}

	var end *html.Node
	for s := start.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.CommentNode && strings.TrimSpace(s.Data) == endMarker {
			end = s
			break
		}
	}

	if end != nil {
		for s := start.NextSibling; s != end; {
			next := s.NextSibling
			start.Parent.RemoveChild(s)
			s = next
		}
	}

	insertBefore := start.NextSibling
	for _, b := range blocks {
		start.Parent.InsertBefore(b, insertBefore)
	}
}

func styleElement(src string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "type", Val: "text/css"}},
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + strings.TrimSpace(src) + "\n"})
	return n
}

func findComment(doc *html.Node, marker string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found == nil && n.Type == html.CommentNode && strings.TrimSpace(n.Data) == marker {
			found = n
		}
	})
	return found
}

func findElement(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.DataAtom == a {
			found = n
		}
	})
	return found
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}
