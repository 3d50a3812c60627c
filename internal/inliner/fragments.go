package inliner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/sjc5/inkwell/internal/common"
)

type Breakpoint = common.Breakpoint

// FragmentPath derives a breakpoint fragment name from the stylesheet path,
// e.g. dist/css/app.css -> dist/css/app500-mq.css.
func FragmentPath(cssPath, token string) string {
	ext := filepath.Ext(cssPath)
	base := strings.TrimSuffix(cssPath, ext)
	return base + fmt.Sprintf(common.MediaQuerySuffixFmt, token)
}

// ExtractFragments writes one fragment per breakpoint next to the stylesheet,
// holding every top-level @media rule whose query contains the breakpoint's
// predicate. The stylesheet itself is left untouched.
func ExtractFragments(cssPath, src string, breakpoints []Breakpoint) error {
	sheet, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("error parsing stylesheet: %v", err)
	}

	for _, bp := range breakpoints {
		fragment := extractMediaRules(sheet, bp.Query)
		if err := os.WriteFile(FragmentPath(cssPath, bp.Token), []byte(fragment), 0644); err != nil {
			return fmt.Errorf("error writing %s fragment: %v", bp.Token, err)
		}
	}
	return nil
}

func extractMediaRules(sheet *css.Stylesheet, query string) string {
	want := normalizeQuery(query)
	var sb strings.Builder
	for _, rule := range sheet.Rules {
		if !isMediaRule(rule) || !strings.Contains(normalizeQuery(rule.Prelude), want) {
			continue
		}
		sb.WriteString(rule.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func isMediaRule(rule *css.Rule) bool {
	return rule.Kind == css.AtRule && strings.EqualFold(rule.Name, "@media")
}

func normalizeQuery(q string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, q)
}
