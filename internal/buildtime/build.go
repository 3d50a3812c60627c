package buildtime

import (
	"context"

	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/images"
	"github.com/sjc5/inkwell/internal/inliner"
	"github.com/sjc5/inkwell/internal/pages"
	"github.com/sjc5/inkwell/internal/styles"
)

// Pipeline wires every build stage to one config and one template cache.
type Pipeline struct {
	Config *common.Config
	Cache  *pages.Cache

	pages   *pages.Compiler
	styles  *styles.Compiler
	images  *images.Processor
	inliner *inliner.Inliner
}

// NewPipeline builds a pipeline. A nil transpiler starts Dart Sass on first
// use.
func NewPipeline(config *common.Config, transpiler styles.Transpiler) *Pipeline {
	cache := pages.NewCache()

	sc := styles.NewCompiler(config)
	if transpiler != nil {
		sc = styles.NewCompilerWithTranspiler(config, transpiler)
	}

	return &Pipeline{
		Config:  config,
		Cache:   cache,
		pages:   pages.NewCompiler(config, cache),
		styles:  sc,
		images:  images.NewProcessor(config),
		inliner: inliner.NewInliner(config),
	}
}

func (p *Pipeline) CleanTask() Task {
	return Task{Name: "clean", Run: func(ctx context.Context) error {
		if err := Clean(p.Config); err != nil {
			return err
		}
		return MakeRequisiteDirs(p.Config)
	}}
}

func (p *Pipeline) PagesTask() Task {
	return Task{Name: "pages", Run: p.pages.CompileAll}
}

func (p *Pipeline) ResetCacheTask() Task {
	return Task{Name: "reset", Run: func(ctx context.Context) error {
		p.Cache.Reset()
		return nil
	}}
}

func (p *Pipeline) StylesTask() Task {
	return Task{Name: "styles", Run: func(ctx context.Context) error {
		return p.styles.BuildCSS()
	}}
}

func (p *Pipeline) ImagesTask() Task {
	return Task{Name: "images", Run: p.images.ProcessAll}
}

func (p *Pipeline) InlineTask() Task {
	return Task{Name: "inline", Run: p.inliner.InlineAll}
}

// BuildTasks is the one-shot build: clean, pages, styles, images, and the
// inliner in production.
func (p *Pipeline) BuildTasks() []Task {
	tasks := []Task{
		p.CleanTask(),
		p.PagesTask(),
		p.StylesTask(),
		p.ImagesTask(),
	}
	if p.Config.Production {
		tasks = append(tasks, p.InlineTask())
	}
	return tasks
}

func (p *Pipeline) Build(ctx context.Context) error {
	if err := RunSequence(ctx, p.BuildTasks()); err != nil {
		p.Config.Logger.Errorf("build failed: %v", err)
		return err
	}
	p.Config.Logger.Infof("build complete")
	return nil
}

// Close releases the Sass compiler process.
func (p *Pipeline) Close() error {
	return p.styles.Close()
}
