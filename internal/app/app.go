package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"

	"github.com/vk/liveui/internal/backend"
	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/compiler"
	"github.com/vk/liveui/internal/config"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/detector"
	"github.com/vk/liveui/internal/engine"
	"github.com/vk/liveui/internal/hcl"
	"github.com/vk/liveui/internal/scene"
	"github.com/vk/liveui/internal/tree"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *config.Config
	fs       afs.Service
	compiler *compiler.Compiler
	bus      *bus.Bus
	engine   *engine.Engine
	scene    *scene.Adapter
	detector *detector.Detector

	httpServer *http.Server
}

// New builds an App around a rendering backend. The config must be valid.
func New(outW io.Writer, cfg *config.Config, b backend.Backend) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	fs := afs.New()
	comp := compiler.New(hcl.NewParser(), compiler.WithFileSystem(fs))
	updates := bus.New(cfg.BusCapacity)
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		fs:       fs,
		compiler: comp,
		bus:      updates,
		engine:   engine.New(engine.Options{Compiler: comp, Bus: updates}),
		scene:    scene.New(b),
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Engine returns the reload engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Scene returns the scene adapter. This is primarily for testing.
func (a *App) Scene() *scene.Adapter {
	return a.scene
}

func (a *App) detectorOptions() detector.Options {
	return detector.Options{
		Roots:      a.config.Roots,
		Extensions: a.config.Extensions,
		Ignore:     a.config.Ignore,
		Debounce:   a.config.Debounce(),
	}
}

// Run loads every source file, then watches for changes and keeps the
// scene up to date until ctx is cancelled. A *detector.WatchSetupError is
// returned when watching cannot start.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger
	logger.Debug("App.Run method started.")

	opts := a.detectorOptions()
	opts.OnError = func(err error) {
		a.bus.Publish(bus.Error{Message: err.Error()})
	}
	det, err := detector.New(opts)
	if err != nil {
		return err
	}
	a.detector = det

	files, err := det.Discover(ctx, a.fs)
	if err != nil {
		_ = det.Close()
		return fmt.Errorf("failed to discover sources: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Subscribe before the first load so the initial Update reaches the scene.
	applier := scene.NewApplier(a.scene, a.bus)
	g.Go(func() error { return applier.Run(gctx) })

	if _, err := a.engine.Load(ctx, files); err != nil {
		logger.Error("Initial load failed, waiting for fixes.", "error", err)
	}

	g.Go(func() error { return det.Run(gctx) })
	g.Go(func() error { return a.engine.Run(gctx, det.Batches()) })

	if a.config.HealthcheckPort > 0 {
		a.startServer(gctx, g)
	} else {
		logger.Debug("Health check server not started: disabled")
	}

	logger.Info("🚀 Watching for changes.", "roots", det.Roots(), "files", len(files))
	err = g.Wait()
	a.bus.Close()
	logger.Info("🏁 Stopped.")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Check compiles every source file once and returns the joined compile
// errors.
func (a *App) Check(ctx context.Context) (files []string, err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	files, err = detector.Scan(ctx, a.fs, a.detectorOptions())
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, f := range files {
		if _, err := a.compiler.Compile(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return files, errors.Join(errs...)
}

// Tree loads every source file once and returns the resulting live tree.
func (a *App) Tree(ctx context.Context) (*tree.Tree, engine.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	files, err := detector.Scan(ctx, a.fs, a.detectorOptions())
	if err != nil {
		return nil, engine.Result{}, err
	}
	res, err := a.engine.Load(ctx, files)
	if err != nil {
		return nil, res, err
	}
	return a.engine.Live(), res, nil
}
