package inkwell

import (
	"context"
	"net/http"

	"github.com/sjc5/inkwell/internal/buildtime"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/dev"
)

type Config = common.Config
type Breakpoint = common.Breakpoint
type Logger = common.Logger

type Inkwell struct {
	Config   *Config
	pipeline *buildtime.Pipeline
}

// New fills blank config fields with the default directory layout.
func New(config *Config) *Inkwell {
	config.ApplyDefaults()
	return &Inkwell{
		Config:   config,
		pipeline: buildtime.NewPipeline(config, nil),
	}
}

// Build runs clean, pages, styles and images, then the inliner when
// Config.Production is set.
func (k *Inkwell) Build(ctx context.Context) error {
	return k.pipeline.Build(ctx)
}

// Dev builds, then serves the output with live reload while watching the
// sources, until ctx is done.
func (k *Inkwell) Dev(ctx context.Context) error {
	return dev.Run(ctx, k.pipeline)
}

func (k *Inkwell) MustStartDev(ctx context.Context) {
	dev.MustStartDev(ctx, k.pipeline)
}

func (k *Inkwell) GetServeStaticHandler() http.Handler {
	return dev.GetServeStaticHandler(k.Config)
}

func (k *Inkwell) GetRefreshScript() string {
	return dev.GetRefreshScript()
}

// Close stops the Sass compiler process.
func (k *Inkwell) Close() error {
	return k.pipeline.Close()
}
