package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/attrgrid/internal/builder"
	"github.com/vk/attrgrid/internal/completion"
	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/registry"
	"github.com/vk/attrgrid/internal/resolver"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. The report is written to outW; log output goes to logW.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	model  *config.Model
	reg    *registry.Registry
	env    *completion.Environment
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and
// registry. Critical configuration errors panic; the entrypoint recovers
// and turns them into a clean exit.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded.")

	reg := registry.New()
	registerBuiltins(reg)
	builder.RegisterSchemas(ctx, model, reg)
	logger.Debug("Strategy registry populated.",
		"schemas", reg.Names(registry.CategorySchema),
		"path_completion", reg.Names(registry.CategoryPathCompletion))

	return &App{
		outW:   outW,
		logger: logger,
		model:  model,
		reg:    reg,
		env:    completion.NewEnvironment(model.Completion, reg),
	}
}

// registerBuiltins installs the built-in completion strategies under the
// names configuration refers to them by.
func registerBuiltins(reg *registry.Registry) {
	reg.Register(registry.CategoryProcessCompletion, "basic", completion.BasicFactory())
	reg.Register(registry.CategoryPathCompletion, "null", resolver.Null{})
	reg.Register(registry.CategoryPathCompletion, "pattern", resolver.Pattern{})
	reg.Register(registry.CategoryPathCompletion, "glob", resolver.Glob{})
}

// Environment returns the completion environment. Primarily for testing.
func (a *App) Environment() *completion.Environment {
	return a.env
}

// Model returns the loaded configuration model. Primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
