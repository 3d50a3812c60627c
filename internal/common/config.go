package common

import (
	"github.com/sjc5/kit/pkg/colorlog"
)

type Logger colorlog.Logger

type Config struct {
	/*
		RootDir is the parent directory of the source tree ("src") and the
		output directory ("dist"). It should be set relative to where you run
		the build and dev commands from. We do run filepath.Clean on RootDir,
		so if you leave it blank, it will default to ".". Every other path in
		this struct is set relative to RootDir.
	*/
	RootDir string `mapstructure:"root"`

	// Output directory. Entirely removed and regenerated on every build.
	DistDir string `mapstructure:"dist"`

	PagesDir    string `mapstructure:"pages"`
	LayoutsDir  string `mapstructure:"layouts"`
	PartialsDir string `mapstructure:"partials"`
	HelpersDir  string `mapstructure:"helpers"`
	DataDir     string `mapstructure:"data"`

	// Layout used by pages that do not name one in their front matter.
	DefaultLayout string `mapstructure:"default_layout"`

	// Single Sass entry point, e.g. "src/assets/scss/app.scss".
	StyleEntry        string   `mapstructure:"style_entry"`
	StyleIncludePaths []string `mapstructure:"style_include_paths"`

	// Extra directories whose .scss files should trigger a style rebuild in
	// dev, such as a local checkout of the framework sources ("../scss").
	StyleWatchDirs []string `mapstructure:"style_watch_dirs"`

	// Path to the Dart Sass executable. Leave blank to look up "sass" on PATH.
	SassBinary string `mapstructure:"sass_binary"`

	ImagesDir string `mapstructure:"images"`

	// Plain CSS injected as a literal style block during inlining, since
	// :hover rules cannot live in style attributes.
	HoverCSS string `mapstructure:"hover_css"`

	Breakpoints []Breakpoint `mapstructure:"breakpoints"`

	// Production enables the inliner and disables source maps.
	Production bool `mapstructure:"production"`

	// Dev server port. If taken, the next free port is used.
	Port int `mapstructure:"port"`

	Logger Logger `mapstructure:"-"`
}

// Breakpoint names one responsive media query whose rules are extracted
// into a fragment stylesheet (app.css -> app<Token>-mq.css).
type Breakpoint struct {
	Token string `mapstructure:"token"`
	Query string `mapstructure:"query"`
}
