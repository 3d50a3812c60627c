package dev

import (
	"context"
	"path/filepath"

	"github.com/sjc5/inkwell/internal/buildtime"
	"github.com/sjc5/inkwell/internal/common"
)

// relPattern turns a config directory into a glob relative to the root.
func relPattern(config *common.Config, dir, suffix string) string {
	rel, err := filepath.Rel(config.GetCleanRootDir(), config.Path(dir))
	if err != nil {
		rel = dir
	}
	return filepath.ToSlash(rel) + suffix
}

func reloadTask(notify func(RefreshPayload)) buildtime.Task {
	return buildtime.Task{Name: "reload", Run: func(ctx context.Context) error {
		notify(RefreshPayload{ChangeType: ChangeTypeReload})
		return nil
	}}
}

// buildHandlers returns the watcher handlers for p: pages, templates,
// styles and images, each finishing with a browser reload.
func buildHandlers(p *buildtime.Pipeline, notify func(RefreshPayload)) []Handler {
	config := p.Config

	withInline := func(tasks ...buildtime.Task) []buildtime.Task {
		if config.Production {
			tasks = append(tasks, p.InlineTask())
		}
		return append(tasks, reloadTask(notify))
	}

	stylePatterns := []string{
		relPattern(config, filepath.Dir(config.StyleEntry), "/**/*.scss"),
		relPattern(config, config.HoverCSS, ""),
	}
	for _, dir := range config.StyleWatchDirs {
		stylePatterns = append(stylePatterns, relPattern(config, dir, "/**/*.scss"))
	}
	styleActions := []buildtime.Task{p.StylesTask(), reloadTask(notify)}
	if config.Production {
		// inlining rewrites pages in place, so they are recompiled first
		styleActions = withInline(p.StylesTask(), p.PagesTask())
	}

	return []Handler{
		{
			Name:     "pages",
			Patterns: []string{relPattern(config, config.PagesDir, "/**/*.html")},
			Actions:  withInline(p.PagesTask()),
		},
		{
			Name: "templates",
			Patterns: []string{
				relPattern(config, config.LayoutsDir, "/**/*"),
				relPattern(config, config.PartialsDir, "/**/*"),
				relPattern(config, config.HelpersDir, "/**/*"),
				relPattern(config, config.DataDir, "/**/*"),
			},
			Actions: withInline(p.ResetCacheTask(), p.PagesTask()),
		},
		{
			Name:     "styles",
			Patterns: stylePatterns,
			Actions:  styleActions,
		},
		{
			Name:     "images",
			Patterns: []string{relPattern(config, config.ImagesDir, "/**/*")},
			Actions:  []buildtime.Task{p.ImagesTask(), reloadTask(notify)},
		},
	}
}

// watchDirs is every source directory a handler listens to.
func watchDirs(config *common.Config) []string {
	dirs := []string{
		config.GetSrcDir(),
		config.Path(config.PagesDir),
		config.Path(config.LayoutsDir),
		config.Path(config.PartialsDir),
		config.Path(config.HelpersDir),
		config.Path(config.DataDir),
		config.Path(config.ImagesDir),
		config.Path(filepath.Dir(config.StyleEntry)),
		config.Path(filepath.Dir(config.HoverCSS)),
	}
	for _, dir := range config.StyleWatchDirs {
		dirs = append(dirs, config.Path(dir))
	}

	var unique []string
	for _, dir := range dirs {
		covered := false
		for _, u := range unique {
			if isDirOrChildOfDir(dir, u) {
				covered = true
				break
			}
		}
		if !covered {
			unique = append(unique, dir)
		}
	}
	return unique
}
