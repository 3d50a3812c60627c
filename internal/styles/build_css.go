package styles

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/sjc5/inkwell/internal/common"
)

const sourceMapCommentFmt = "\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64,%s */\n"

// Transpiler compiles one Sass source into CSS.
type Transpiler interface {
	Execute(args godartsass.Args) (godartsass.Result, error)
}

// Compiler builds the single Sass entry point into dist/css. The Dart Sass
// process is started on first use and reused until Close.
type Compiler struct {
	cfg *common.Config

	mu         sync.Mutex
	transpiler Transpiler
	closer     func() error
}

func NewCompiler(cfg *common.Config) *Compiler {
	return &Compiler{cfg: cfg}
}

// NewCompilerWithTranspiler uses t instead of a Dart Sass process.
func NewCompilerWithTranspiler(cfg *common.Config, t Transpiler) *Compiler {
	return &Compiler{cfg: cfg, transpiler: t}
}

func (c *Compiler) getTranspiler() (Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler != nil {
		return c.transpiler, nil
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: c.cfg.SassBinary,
		LogEventHandler: func(e godartsass.LogEvent) {
			c.cfg.Logger.Warning(fmt.Sprintf("sass: %s", e.Message))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error starting dart sass: %v", err)
	}
	c.transpiler = t
	c.closer = t.Close
	return t, nil
}

// Close stops the Dart Sass process, if one was started.
func (c *Compiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	err := c.closer()
	c.closer = nil
	c.transpiler = nil
	return err
}

// BuildCSS compiles the entry point. In development the output carries an
// inline base64 source map; in production it carries none.
func (c *Compiler) BuildCSS() error {
	entry := c.cfg.Path(c.cfg.StyleEntry)
	source, err := os.ReadFile(entry)
	if err != nil {
		return fmt.Errorf("error reading style entry: %v", err)
	}

	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return fmt.Errorf("error resolving style entry: %v", err)
	}

	t, err := c.getTranspiler()
	if err != nil {
		return err
	}

	includePaths := make([]string, 0, len(c.cfg.StyleIncludePaths)+1)
	for _, p := range c.cfg.StyleIncludePaths {
		includePaths = append(includePaths, c.cfg.Path(p))
	}
	includePaths = append(includePaths, filepath.Dir(entry))

	dev := !c.cfg.Production
	result, err := t.Execute(godartsass.Args{
		Source:                  string(source),
		URL:                     (&url.URL{Scheme: "file", Path: filepath.ToSlash(absEntry)}).String(),
		OutputStyle:             godartsass.OutputStyleExpanded,
		IncludePaths:            includePaths,
		EnableSourceMap:         dev,
		SourceMapIncludeSources: dev,
	})
	if err != nil {
		c.cfg.Logger.Errorf("error compiling sass: %v", err)
		return fmt.Errorf("error compiling sass: %v", err)
	}

	css := result.CSS
	if dev && result.SourceMap != "" {
		css += fmt.Sprintf(sourceMapCommentFmt, base64.StdEncoding.EncodeToString([]byte(result.SourceMap)))
	}

	outputFile := c.cfg.GetDistCSSFile()
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}
	if err := os.WriteFile(outputFile, []byte(css), 0644); err != nil {
		return fmt.Errorf("error writing css: %v", err)
	}

	c.cfg.Logger.Infof("compiled %s", filepath.Base(outputFile))
	return nil
}
