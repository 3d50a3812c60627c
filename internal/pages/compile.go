package pages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/inky"
)

const pageGlob = "**/*.html"

type Compiler struct {
	cfg   *common.Config
	cache *Cache

	// pages found by the previous run, relative to the pages directory
	seen map[string]struct{}
}

func NewCompiler(cfg *common.Config, cache *Cache) *Compiler {
	return &Compiler{cfg: cfg, cache: cache, seen: map[string]struct{}{}}
}

// CompileAll renders every page under the pages directory into the output
// directory at the same relative path. A failing page does not stop the
// others; all page errors are joined into the returned error. Output of
// pages that disappeared since the previous run is removed.
func (c *Compiler) CompileAll(ctx context.Context) error {
	set, err := c.cache.load(c.cfg)
	if err != nil {
		return err
	}

	pagesDir := c.cfg.Path(c.cfg.PagesDir)
	files, err := globDir(pagesDir, pageGlob)
	if err != nil {
		return fmt.Errorf("error finding pages: %v", err)
	}

	var errs []error
	current := make(map[string]struct{}, len(files))
	for _, rel := range files {
		current[rel] = struct{}{}
	}
	if err := c.removeDeleted(current); err != nil {
		errs = append(errs, err)
	}
	c.seen = current

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.compileFile(set, pagesDir, rel); err != nil {
			c.cfg.Logger.Errorf("error compiling page %s: %v", rel, err)
			errs = append(errs, fmt.Errorf("error compiling page %s: %v", rel, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	c.cfg.Logger.Infof("compiled %d pages", len(files))
	return nil
}

func (c *Compiler) removeDeleted(current map[string]struct{}) error {
	var errs []error
	for rel := range c.seen {
		if _, ok := current[rel]; ok {
			continue
		}
		outPath := filepath.Join(c.cfg.GetDistDir(), filepath.FromSlash(rel))
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("error removing output of deleted page %s: %v", rel, err))
			continue
		}
		c.cfg.Logger.Infof("removed output of deleted page %s", rel)
	}
	return errors.Join(errs...)
}

func (c *Compiler) compileFile(set *templateSet, pagesDir, rel string) error {
	src, err := os.ReadFile(filepath.Join(pagesDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	fm, body, err := splitFrontMatter(src)
	if err != nil {
		return err
	}

	out, err := c.render(set, &Page{RelPath: rel, FrontMatter: fm, Body: body})
	if err != nil {
		return err
	}

	outPath := filepath.Join(c.cfg.GetDistDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(out), 0644)
}

// render expands the page body, then renders its layout with the body
// available as the "body" partial.
func (c *Compiler) render(set *templateSet, p *Page) (string, error) {
	body, err := inky.Expand(p.Body)
	if err != nil {
		return "", err
	}

	layoutName := c.cfg.DefaultLayout
	if l, ok := p.FrontMatter["layout"].(string); ok && l != "" {
		layoutName = l
	}
	layoutSrc, ok := set.layouts[layoutName]
	if !ok {
		return "", fmt.Errorf("layout %q does not exist", layoutName)
	}

	tpl, err := raymond.Parse(layoutSrc)
	if err != nil {
		return "", fmt.Errorf("error parsing layout %s: %v", layoutName, err)
	}

	pageName := nameFromPath(p.RelPath)
	builtins := builtinHelpers(pageName)
	helpers := make(map[string]interface{}, len(builtins)+len(set.helpers))
	for name, fn := range builtins {
		helpers[name] = fn
	}
	for name, src := range set.helpers {
		helpers[name] = directoryHelper(name, src, set.partials, builtins)
	}

	tpl.RegisterPartials(set.partials)
	tpl.RegisterPartial(bodyPartial, string(body))
	tpl.RegisterHelpers(helpers)

	return tpl.Exec(pageContext(set, p, layoutName))
}

func pageContext(set *templateSet, p *Page, layoutName string) map[string]interface{} {
	ctx := make(map[string]interface{}, len(set.data)+len(p.FrontMatter)+3)
	for k, v := range set.data {
		ctx[k] = v
	}
	for k, v := range p.FrontMatter {
		ctx[k] = v
	}
	ctx["page"] = nameFromPath(p.RelPath)
	ctx["layout"] = layoutName
	ctx["root"] = relativeRoot(p.RelPath)
	return ctx
}

// relativeRoot is the path from the page's directory back to the output
// root, e.g. "" for "index.html" and "../" for "promo/index.html".
func relativeRoot(rel string) string {
	depth := strings.Count(path.Clean(rel), "/")
	return strings.Repeat("../", depth)
}
