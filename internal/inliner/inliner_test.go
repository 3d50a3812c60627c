package inliner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aymerick/douceur/parser"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/kit/pkg/colorlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type testEnv struct {
	config *common.Config
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := &common.Config{
		RootDir:    t.TempDir(),
		Production: true,
		Logger:     &colorlog.Log{},
	}
	config.ApplyDefaults()
	return &testEnv{config: config}
}

func (env *testEnv) createTestFile(t *testing.T, path, content string) {
	t.Helper()

	if !filepath.IsAbs(path) {
		path = env.config.Path(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

const testCSS = `.a {
  color: red;
}

@media only screen and (max-width: 500px) {
  .a {
    color: #123456;
  }
}

@media only screen and (max-width: 745px) {
  .b {
    width: 100%;
  }
}

@media print {
  .a {
    display: none;
  }
}
`

const testPage = `<!DOCTYPE html>
<html>
<head>
<link rel="stylesheet" type="text/css" href="css/app.css">
<!-- hover:css -->
<!-- endinject -->
<!-- inject:css -->
<!-- endinject -->
</head>
<body><p class="a">x</p></body>
</html>`

func (env *testEnv) writeBuildOutput(t *testing.T, page string) {
	t.Helper()
	env.createTestFile(t, env.config.GetDistCSSFile(), testCSS)
	env.createTestFile(t, env.config.HoverCSS, ".a:hover { color: green; }")
	env.createTestFile(t, filepath.Join(env.config.GetDistDir(), "index.html"), page)
}

func (env *testEnv) readDist(t *testing.T, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(env.config.GetDistDir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestFragmentPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "css", "app500-mq.css"), FragmentPath(filepath.Join("dist", "css", "app.css"), "500"))
	assert.Equal(t, "app745-mq.css", FragmentPath("app.css", "745"))
}

func TestExtractFragments(t *testing.T) {
	env := setupTestEnv(t)
	cssPath := env.config.GetDistCSSFile()
	env.createTestFile(t, cssPath, testCSS)

	require.NoError(t, ExtractFragments(cssPath, testCSS, env.config.Breakpoints))

	small, err := os.ReadFile(FragmentPath(cssPath, "500"))
	require.NoError(t, err)
	assert.Contains(t, string(small), "#123456")
	assert.NotContains(t, string(small), "745px")
	assert.NotContains(t, string(small), "print")

	large, err := os.ReadFile(FragmentPath(cssPath, "745"))
	require.NoError(t, err)
	assert.Contains(t, string(large), "100%")
	assert.NotContains(t, string(large), "500px")

	// stylesheet is left untouched
	full, err := os.ReadFile(cssPath)
	require.NoError(t, err)
	assert.Equal(t, testCSS, string(full))
}

func TestExtractFragmentsIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	cssPath := env.config.GetDistCSSFile()
	env.createTestFile(t, cssPath, testCSS)
	bps := env.config.Breakpoints

	require.NoError(t, ExtractFragments(cssPath, testCSS, bps))
	first, err := os.ReadFile(FragmentPath(cssPath, "500"))
	require.NoError(t, err)

	require.NoError(t, ExtractFragments(cssPath, testCSS, bps))
	second, err := os.ReadFile(FragmentPath(cssPath, "500"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// extracting from a fragment yields the same rules
	sheet, err := parser.Parse(string(first))
	require.NoError(t, err)
	again := extractMediaRules(sheet, bps[0].Query)
	assert.Equal(t, normalizeQuery(string(first)), normalizeQuery(again))
}

func TestInlineAll(t *testing.T) {
	env := setupTestEnv(t)
	env.writeBuildOutput(t, testPage)

	require.NoError(t, NewInliner(env.config).InlineAll(context.Background()))

	out := env.readDist(t, "index.html")
	assert.Equal(t, 1, strings.Count(out, "500px"))
	assert.Equal(t, 1, strings.Count(out, "#123456"))
	assert.Contains(t, out, `style="color:red"`)
	assert.Contains(t, out, "745px")
	assert.Contains(t, out, "green")
	assert.NotContains(t, out, "print")
	assert.NotContains(t, out, "app.css")
	assert.NotContains(t, out, "endinject")

	hoverAt := strings.Index(out, "green")
	mediaAt := strings.Index(out, "500px")
	assert.Less(t, hoverAt, mediaAt)
}

func TestInlineAllKeepsNonBreakingSpacesEscaped(t *testing.T) {
	env := setupTestEnv(t)
	env.writeBuildOutput(t, `<html><head></head><body><table><tr><td class="a">&nbsp;</td></tr></table><p>a&nbsp;b</p></body></html>`)

	require.NoError(t, NewInliner(env.config).InlineAll(context.Background()))

	out := env.readDist(t, "index.html")
	assert.NotContains(t, out, "\u00a0")
	assert.Contains(t, out, "a&nbsp;b")
}

func TestEscapeNonBreakingSpaces(t *testing.T) {
	in := "<p title=\"a\u00a0b\">x\u00a0y</p><style>.a::after{content:\"\u00a0\"}</style><br/>\u00a0"
	want := "<p title=\"a&nbsp;b\">x&nbsp;y</p><style>.a::after{content:\"\u00a0\"}</style><br/>&nbsp;"
	assert.Equal(t, want, string(escapeNonBreakingSpaces([]byte(in))))

	plain := []byte("<p>x</p>")
	assert.Equal(t, plain, escapeNonBreakingSpaces(plain))
}

func TestInlineAllWithoutPlaceholdersAppendsToHead(t *testing.T) {
	env := setupTestEnv(t)
	env.writeBuildOutput(t, `<html><head><title>t</title></head><body><p class="a">x</p></body></html>`)

	require.NoError(t, NewInliner(env.config).InlineAll(context.Background()))

	out := env.readDist(t, "index.html")
	headEnd := strings.Index(out, "</head>")
	require.NotEqual(t, -1, headEnd)
	assert.Contains(t, out[:headEnd], "green")
	assert.Contains(t, out[:headEnd], "500px")
}

func TestInlineAllMissingHoverFails(t *testing.T) {
	env := setupTestEnv(t)
	env.writeBuildOutput(t, testPage)
	require.NoError(t, os.Remove(env.config.Path(env.config.HoverCSS)))

	assert.Error(t, NewInliner(env.config).InlineAll(context.Background()))
}

func TestInlineAllMissingStylesheetFails(t *testing.T) {
	env := setupTestEnv(t)
	env.createTestFile(t, env.config.HoverCSS, "")

	assert.Error(t, NewInliner(env.config).InlineAll(context.Background()))
}

func renderWithRules(t *testing.T, css, doc string) string {
	t.Helper()

	rules, err := parseRules(css)
	require.NoError(t, err)
	node, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	applyRules(node, rules)

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, node))
	return buf.String()
}

func TestCascade(t *testing.T) {
	css := `p { color: red; } .x { color: blue; } #y { color: green !important; } p { margin: 0; }`
	out := renderWithRules(t, css,
		`<p class="x">a</p><p class="x" style="color: black">b</p><p id="y" class="x" style="color: black">c</p>`)

	assert.Contains(t, out, `<p class="x" style="color: blue; margin: 0">a</p>`)
	assert.Contains(t, out, `<p class="x" style="color: black; margin: 0">b</p>`)
	assert.Contains(t, out, `<p id="y" class="x" style="color: green !important; margin: 0">c</p>`)
}

func TestCascadeKeepsUnterminatedInlineStyle(t *testing.T) {
	out := renderWithRules(t, "td { color: red; }",
		`<table><tr><td style="padding: 10px">x</td><td style=" margin: 0 ; padding: 4px ">y</td></tr></table>`)

	assert.Contains(t, out, `<td style="color: red; padding: 10px">x</td>`)
	assert.Contains(t, out, `<td style="color: red; margin: 0; padding: 4px">y</td>`)
}

func TestCascadeSourceOrder(t *testing.T) {
	out := renderWithRules(t, `.a { color: red; } .b { color: blue; }`, `<p class="b a">x</p>`)
	assert.Contains(t, out, `style="color: blue"`)
}

func TestDynamicSelectorsAreNotInlined(t *testing.T) {
	out := renderWithRules(t, `a:hover { color: red; } a::before { content: "x"; } a { color: blue; }`, `<a href="#">x</a>`)
	assert.Contains(t, out, `style="color: blue"`)
	assert.NotContains(t, out, "red")
}

func TestAttributeHints(t *testing.T) {
	css := `td { width: 300px; text-align: center; vertical-align: top; background-color: #eeeeee; } img { width: auto; height: 20px; }`
	out := renderWithRules(t, css, `<table><tr><td align="left">d</td></tr></table><img src="x.png">`)

	assert.Contains(t, out, `align="left"`)
	assert.NotContains(t, out, `align="center"`)
	assert.Contains(t, out, `width="300"`)
	assert.Contains(t, out, `valign="top"`)
	assert.Contains(t, out, `bgcolor="#eeeeee"`)
	assert.Contains(t, out, `height="20"`)
	assert.NotContains(t, out, `width="auto"`)
}

func TestRemoveStylesheetLinksKeepsOthers(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><head><link rel="stylesheet" href="../css/app.css?v=1"><link rel="stylesheet" href="https://fonts.example.com/font.css"></head></html>`))
	require.NoError(t, err)

	removeStylesheetLinks(doc, "app.css")

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, doc))
	assert.NotContains(t, buf.String(), "app.css")
	assert.Contains(t, buf.String(), "font.css")
}
