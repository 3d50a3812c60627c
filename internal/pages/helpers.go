package pages

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var builtinHelperNames = map[string]struct{}{
	"ifpage":     {},
	"unlesspage": {},
	"ifequal":    {},
	"markdown":   {},
	"repeat":     {},
	"code":       {},
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// builtinHelpers returns the helpers available to every template. The page
// helpers close over the name of the page being compiled.
func builtinHelpers(pageName string) map[string]interface{} {
	return map[string]interface{}{
		"ifpage": func(name interface{}, options *raymond.Options) interface{} {
			if raymond.Str(name) == pageName {
				return options.Fn()
			}
			return options.Inverse()
		},
		"unlesspage": func(name interface{}, options *raymond.Options) interface{} {
			if raymond.Str(name) != pageName {
				return options.Fn()
			}
			return options.Inverse()
		},
		"ifequal": func(a, b interface{}, options *raymond.Options) interface{} {
			if raymond.Str(a) == raymond.Str(b) {
				return options.Fn()
			}
			return options.Inverse()
		},
		"markdown": func(options *raymond.Options) raymond.SafeString {
			var buf bytes.Buffer
			if err := md.Convert([]byte(stripIndent(options.Fn())), &buf); err != nil {
				panic(fmt.Errorf("error rendering markdown: %v", err))
			}
			return raymond.SafeString(buf.String())
		},
		"repeat": func(count interface{}, options *raymond.Options) interface{} {
			n, err := toInt(count)
			if err != nil {
				panic(fmt.Errorf("error in repeat helper: %v", err))
			}
			var sb strings.Builder
			for i := 0; i < n; i++ {
				sb.WriteString(options.Fn())
			}
			return sb.String()
		},
		"code": func(lang interface{}, options *raymond.Options) raymond.SafeString {
			class := ""
			if l := raymond.Str(lang); l != "" {
				class = fmt.Sprintf(` class="language-%s"`, raymond.Escape(l))
			}
			body := strings.Trim(stripIndent(options.Fn()), "\n")
			return raymond.SafeString(fmt.Sprintf("<pre><code%s>%s</code></pre>", class, raymond.Escape(body)))
		},
	}
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("cannot use %v as a count", v)
}

// stripIndent removes the indentation shared by every non-blank line, so
// that markup nested inside a template is not read as a code block.
func stripIndent(s string) string {
	lines := strings.Split(s, "\n")
	shared := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		if shared == -1 || indent < shared {
			shared = indent
		}
	}
	if shared <= 0 {
		return s
	}
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = l[shared:]
	}
	return strings.Join(lines, "\n")
}

// directoryHelper turns a helper template into a raymond helper. The
// template is rendered against the current context with the helper's hash
// arguments layered on top.
func directoryHelper(name, src string, partials map[string]string, builtins map[string]interface{}) func(options *raymond.Options) raymond.SafeString {
	return func(options *raymond.Options) raymond.SafeString {
		tpl, err := raymond.Parse(src)
		if err != nil {
			panic(fmt.Errorf("error parsing helper %s: %v", name, err))
		}
		tpl.RegisterPartials(partials)
		tpl.RegisterHelpers(builtins)

		ctx := map[string]interface{}{}
		if m, ok := options.Ctx().(map[string]interface{}); ok {
			for k, v := range m {
				ctx[k] = v
			}
		}
		for k, v := range options.Hash() {
			ctx[k] = v
		}

		out, err := tpl.Exec(ctx)
		if err != nil {
			panic(fmt.Errorf("error rendering helper %s: %v", name, err))
		}
		return raymond.SafeString(out)
	}
}
