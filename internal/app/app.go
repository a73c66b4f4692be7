package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kvolkov/gridci/internal/config"
	"github.com/kvolkov/gridci/internal/ctxlog"
	"github.com/kvolkov/gridci/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go step handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Kinds())

	model := &config.Model{}
	if appConfig.WorkflowPath != "" {
		var err error
		model, err = loader.Load(ctx, appConfig.WorkflowPath)
		if err != nil {
			// A failure to load config is a fatal startup error.
			panic(fmt.Errorf("failed to load workflows: %w", err))
		}
		logger.Debug("Workflows loaded and translated into unified model.", "count", len(model.Workflows))

		// Every referenced step kind must have a compiled-in handler.
		if err := reg.ValidateModel(ctx, model); err != nil {
			panic(err)
		}
		logger.Debug("Registry validation passed.")
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded workflow model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
