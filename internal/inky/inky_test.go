package inky

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expand(t *testing.T, src string) string {
	t.Helper()
	out, err := Expand([]byte(src))
	require.NoError(t, err)
	return string(out)
}

func TestExpandLeavesPlainMarkupUntouched(t *testing.T) {
	src := "<!DOCTYPE html>\n<html><head><style>p > a { color: red; }</style></head>" +
		"<body><p class=\"x\" data-foo='bar'>Hi &amp; bye<br></p><!-- note --></body></html>"
	assert.Equal(t, src, expand(t, src))
}

func TestExpandPreservesHandlebarsBetweenRows(t *testing.T) {
	src := `<table>{{#each items}}<tr><td>{{name}}</td></tr>{{/each}}</table>`
	assert.Equal(t, src, expand(t, src))
}

func TestContainerAndRow(t *testing.T) {
	out := expand(t, `<container class="body"><row>x</row></container>`)
	assert.Equal(t,
		`<table align="center" class="container body"><tbody><tr><td>`+
			`<table class="row"><tbody><tr>x</tr></tbody></table>`+
			`</td></tr></tbody></table>`,
		out,
	)
}

func TestColumnsSizingAndPosition(t *testing.T) {
	out := expand(t, `<row><columns>a</columns><columns small="12" large="8">b</columns></row>`)

	assert.Contains(t, out, `<th class="small-12 large-6 columns first">`)
	assert.Contains(t, out, `<th class="small-12 large-8 columns last">`)
	assert.NotContains(t, out, "expander")
}

func TestSingleColumnGetsExpander(t *testing.T) {
	out := expand(t, `<row><columns class="pad">a</columns></row>`)
	assert.Contains(t, out, `<th class="small-12 large-12 columns first last pad">`)
	assert.Contains(t, out, `<th>a</th><th class="expander"></th>`)
}

func TestColumnExpanderSuppressed(t *testing.T) {
	nested := expand(t, `<columns><row><columns>a</columns></row></columns>`)
	assert.Equal(t, 1, strings.Count(nested, "expander"))

	opted := expand(t, `<columns no-expander>a</columns>`)
	assert.NotContains(t, opted, "expander")
}

func TestButton(t *testing.T) {
	out := expand(t, `<button href="https://example.com/?a=1&amp;b=2" target="_blank">Go</button>`)
	assert.Equal(t,
		`<table class="button"><tbody><tr><td><table><tbody><tr><td>`+
			`<a href="https://example.com/?a=1&amp;b=2" target="_blank">Go</a>`+
			`</td></tr></tbody></table></td></tr></tbody></table>`,
		out,
	)
}

func TestExpandedButton(t *testing.T) {
	out := expand(t, `<button class="expand" href="#">Go</button>`)
	assert.Contains(t, out, `<table class="button expand">`)
	assert.Contains(t, out, `<center data-parsed=""><a href="#" align="center" class="float-center">Go</a></center>`)
	assert.Contains(t, out, `<td class="expander"></td>`)
}

func TestCalloutAndWrapper(t *testing.T) {
	callout := expand(t, `<callout class="primary">c</callout>`)
	assert.Equal(t,
		`<table class="callout"><tbody><tr><th class="callout-inner primary">c</th><th class="expander"></th></tr></tbody></table>`,
		callout,
	)

	wrapper := expand(t, `<wrapper class="header">w</wrapper>`)
	assert.Equal(t,
		`<table class="wrapper header" align="center"><tbody><tr><td class="wrapper-inner">w</td></tr></tbody></table>`,
		wrapper,
	)
}

func TestSpacer(t *testing.T) {
	def := expand(t, `<spacer></spacer>`)
	assert.Contains(t, def, `height="16" style="font-size:16px;line-height:16px;"`)

	sized := expand(t, `<spacer size="32"></spacer>`)
	assert.Contains(t, sized, `height="32"`)

	responsive := expand(t, `<spacer size-sm="10" size-lg="40"></spacer>`)
	assert.Contains(t, responsive, `class="spacer hide-for-large"`)
	assert.Contains(t, responsive, `class="spacer show-for-large"`)
	assert.Contains(t, responsive, `height="10"`)
	assert.Contains(t, responsive, `height="40"`)
}

func TestMenuAndCenter(t *testing.T) {
	out := expand(t, `<center><menu><item href="/a">A</item></menu></center>`)

	assert.True(t, strings.HasPrefix(out, `<center data-parsed="">`))
	assert.Contains(t, out, `<table class="menu float-center" align="center">`)
	assert.Contains(t, out, `<th class="menu-item float-center"><a href="/a">A</a></th>`)
}

func TestCenterPlainChild(t *testing.T) {
	out := expand(t, `<center><img src="logo.png"></center>`)
	assert.Equal(t, `<center data-parsed=""><img src="logo.png" align="center" class="float-center"></center>`, out)
}

func TestHLineAndBlockGrid(t *testing.T) {
	assert.Equal(t,
		`<table class="h-line"><tr><th>&nbsp;</th></tr></table>`,
		expand(t, `<h-line></h-line>`),
	)
	assert.Equal(t,
		`<table class="block-grid up-3"><tbody><tr><td>x</td></tr></tbody></table>`,
		expand(t, `<block-grid up="3"><td>x</td></block-grid>`),
	)
}

func TestExtraAttributesPassThrough(t *testing.T) {
	out := expand(t, `<row id="main" dir="rtl">x</row>`)
	assert.Equal(t, `<table class="row" id="main" dir="rtl"><tbody><tr>x</tr></tbody></table>`, out)
}
