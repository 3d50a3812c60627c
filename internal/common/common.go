package common

import (
	"path/filepath"
	"strings"

	"github.com/sjc5/kit/pkg/colorlog"
)

const (
	srcDir              = "src"
	distDir             = "dist"
	cssDistDir          = "css"
	imagesDistDir       = "assets/img"
	defaultLayout       = "default"
	defaultStyleEntry   = "src/assets/scss/app.scss"
	defaultHoverCSS     = "src/assets/scss/_hovers.css"
	foundationSassDir   = "node_modules/foundation-emails/scss"
	DefaultPort         = 3000
	MediaQuerySuffixFmt = "%s-mq.css"
)

var DefaultBreakpoints = []Breakpoint{
	{Token: "500", Query: "max-width: 500px"},
	{Token: "745", Query: "max-width: 745px"},
}

var Log Logger = &colorlog.Log{}

// ApplyDefaults fills every blank field with the fixed directory conventions.
func (c *Config) ApplyDefaults() {
	setIfBlank(&c.DistDir, distDir)
	setIfBlank(&c.PagesDir, filepath.Join(srcDir, "pages"))
	setIfBlank(&c.LayoutsDir, filepath.Join(srcDir, "layouts"))
	setIfBlank(&c.PartialsDir, filepath.Join(srcDir, "partials"))
	setIfBlank(&c.HelpersDir, filepath.Join(srcDir, "helpers"))
	setIfBlank(&c.DataDir, filepath.Join(srcDir, "data"))
	setIfBlank(&c.DefaultLayout, defaultLayout)
	setIfBlank(&c.StyleEntry, defaultStyleEntry)
	setIfBlank(&c.ImagesDir, filepath.Join(srcDir, "assets", "img"))
	setIfBlank(&c.HoverCSS, defaultHoverCSS)
	if c.StyleIncludePaths == nil {
		c.StyleIncludePaths = []string{foundationSassDir}
	}
	if len(c.Breakpoints) == 0 {
		c.Breakpoints = append([]Breakpoint(nil), DefaultBreakpoints...)
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Logger == nil {
		c.Logger = Log
	}
}

func setIfBlank(field *string, val string) {
	if strings.TrimSpace(*field) == "" {
		*field = val
	}
}

func (c *Config) GetCleanRootDir() string {
	return filepath.Clean(c.RootDir)
}

// Path resolves a config-relative path against RootDir.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(c.GetCleanRootDir(), rel)
}

func (c *Config) GetDistDir() string {
	return c.Path(c.DistDir)
}

func (c *Config) GetDistCSSDir() string {
	return filepath.Join(c.GetDistDir(), cssDistDir)
}

// GetDistCSSFile is the compiled stylesheet, named after the Sass entry point.
func (c *Config) GetDistCSSFile() string {
	base := filepath.Base(c.StyleEntry)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".css"
	return filepath.Join(c.GetDistCSSDir(), base)
}

func (c *Config) GetDistImagesDir() string {
	return filepath.Join(c.GetDistDir(), filepath.FromSlash(imagesDistDir))
}

func (c *Config) GetSrcDir() string {
	return c.Path(srcDir)
}
