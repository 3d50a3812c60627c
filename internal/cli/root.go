// Package cli provides the inkwell command line: the default command builds
// and then serves a live-reloading preview, "build" runs a one-shot build.
package cli

import (
	"context"

	"github.com/sjc5/inkwell/internal/buildtime"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/dev"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Build responsive HTML emails from templates, Sass and images",
		Long: `inkwell compiles page templates with layouts and partials, compiles Sass,
optimizes images and, in production mode, inlines CSS for email clients.

Run without a subcommand to build and then serve a live-reloading preview.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(ctx context.Context, p *buildtime.Pipeline) error {
				return dev.Run(ctx, p)
			})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Bool("production", false, "inline CSS and omit source maps")
	flags.String("config", "", "config file (default is ./inkwell.yaml, can also use INKWELL_CONFIG_FILE)")
	flags.String("root", "", "project root containing src (default is the working directory)")
	flags.Int("port", common.DefaultPort, "dev server port; the next free port is used if taken")

	rootCmd.AddCommand(newBuildCmd())
	return rootCmd
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Run a one-shot build into the output directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(ctx context.Context, p *buildtime.Pipeline) error {
				return p.Build(ctx)
			})
		},
	}
}

func withPipeline(cmd *cobra.Command, fn func(context.Context, *buildtime.Pipeline) error) error {
	config, err := loadConfig(viper.New(), cmd.Flags())
	if err != nil {
		return err
	}
	common.InkwellEnv.SetMode(config.Production)

	p := buildtime.NewPipeline(config, nil)
	defer func() {
		if err := p.Close(); err != nil {
			config.Logger.Errorf("error closing sass compiler: %v", err)
		}
	}()

	return fn(cmd.Context(), p)
}

// Execute runs the root command with ctx, which should be cancelled on
// SIGINT and SIGTERM.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
