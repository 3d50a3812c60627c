package dev

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sjc5/inkwell/internal/buildtime"
	"github.com/sjc5/inkwell/internal/common"
	"github.com/sjc5/inkwell/internal/util"
)

const shutdownTimeout = 5 * time.Second

// Run builds once, then serves the output directory with live reload and
// watches the sources until ctx is done.
func Run(ctx context.Context, p *buildtime.Pipeline) error {
	config := p.Config
	common.InkwellEnv.SetMode(config.Production)

	port, err := util.GetFreePort(config.Port)
	if err != nil {
		return fmt.Errorf("error: failed to get free port: %v", err)
	}
	common.InkwellEnv.SetDevServerPort(port)

	if err := p.Build(ctx); err != nil {
		return fmt.Errorf("error: failed to build: %v", err)
	}

	manager := NewClientManager()
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: newRouter(config, manager),
	}
	w := newWatcher(config, buildHandlers(p, manager.Broadcast), watchDirs(config), manager.Broadcast)

	return buildtime.RunParallel(ctx, []buildtime.Task{
		{Name: "livereload", Run: func(ctx context.Context) error {
			manager.start(ctx)
			return nil
		}},
		{Name: "server", Run: func(ctx context.Context) error {
			config.Logger.Infof("serving %s on http://localhost:%d", config.GetDistDir(), port)
			return serve(ctx, srv)
		}},
		{Name: "watcher", Run: w.run},
	})
}

// MustStartDev is Run for callers that treat any dev failure as fatal.
func MustStartDev(ctx context.Context, p *buildtime.Pipeline) {
	if err := Run(ctx, p); err != nil {
		errMsg := fmt.Sprintf("error: dev server failed: %v", err)
		p.Config.Logger.Error(errMsg)
		panic(errMsg)
	}
}

func newRouter(config *common.Config, manager *ClientManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Get(liveReloadPath, liveReloadHandler(manager))
	r.Handle("/*", GetServeStaticHandler(config))
	return r
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error: dev server stopped: %v", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down dev server: %v", err)
		}
		return nil
	}
}
