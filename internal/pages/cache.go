package pages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/inky"
	"gopkg.in/yaml.v3"
)

const (
	templateGlob = "**/*.{html,hbs,handlebars}"
	dataGlob     = "**/*.{json,yml,yaml}"
	bodyPartial  = "body"
)

// Cache holds the parsed layouts, partials, helper templates and data for
// the lifetime of a watch process. Loading is lazy; Reset must be called
// whenever any of the underlying files change.
type Cache struct {
	mu  sync.Mutex
	set *templateSet
}

type templateSet struct {
	layouts  map[string]string
	partials map[string]string
	helpers  map[string]string
	data     map[string]interface{}
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = nil
}

// load returns the cached template set, reading it from disk on first use
// after construction or Reset.
func (c *Cache) load(cfg *common.Config) (*templateSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set != nil {
		return c.set, nil
	}

	set, err := loadTemplateSet(cfg)
	if err != nil {
		return nil, err
	}
	c.set = set
	return set, nil
}

func loadTemplateSet(cfg *common.Config) (*templateSet, error) {
	layouts, err := readTemplateDir(cfg.Path(cfg.LayoutsDir))
	if err != nil {
		return nil, fmt.Errorf("error loading layouts: %v", err)
	}

	partials, err := readTemplateDir(cfg.Path(cfg.PartialsDir))
	if err != nil {
		return nil, fmt.Errorf("error loading partials: %v", err)
	}
	if _, ok := partials[bodyPartial]; ok {
		cfg.Logger.Warning(fmt.Sprintf("partial %q is reserved for the page body and will be ignored", bodyPartial))
		delete(partials, bodyPartial)
	}

	helpers, err := readTemplateDir(cfg.Path(cfg.HelpersDir))
	if err != nil {
		return nil, fmt.Errorf("error loading helpers: %v", err)
	}
	for name := range helpers {
		if _, ok := builtinHelperNames[name]; ok {
			cfg.Logger.Warning(fmt.Sprintf("helper %q shadows a built-in helper and will be ignored", name))
			delete(helpers, name)
		}
	}

	data, err := readDataDir(cfg.Path(cfg.DataDir))
	if err != nil {
		return nil, fmt.Errorf("error loading data: %v", err)
	}

	return &templateSet{
		layouts:  layouts,
		partials: partials,
		helpers:  helpers,
		data:     data,
	}, nil
}

// globDir returns the slash-separated paths under dir matching pattern.
// A missing dir yields no matches.
func globDir(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return doublestar.Glob(os.DirFS(dir), pattern)
}

func nameFromPath(rel string) string {
	base := filepath.Base(filepath.FromSlash(rel))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readTemplateDir reads every template under dir keyed by base name, with
// shorthand email markup already expanded.
func readTemplateDir(dir string) (map[string]string, error) {
	files, err := globDir(dir, templateGlob)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(files))
	for _, rel := range files {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		expanded, err := inky.Expand(b)
		if err != nil {
			return nil, fmt.Errorf("error expanding %s: %v", rel, err)
		}
		out[nameFromPath(rel)] = string(expanded)
	}
	return out, nil
}

func readDataDir(dir string) (map[string]interface{}, error) {
	files, err := globDir(dir, dataGlob)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{}, len(files))
	for _, rel := range files {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}

		var v interface{}
		if filepath.Ext(rel) == ".json" {
			err = json.Unmarshal(b, &v)
		} else {
			err = yaml.Unmarshal(b, &v)
		}
		if err != nil {
			return nil, fmt.Errorf("error parsing %s: %v", rel, err)
		}
		out[nameFromPath(rel)] = v
	}
	return out, nil
}
