package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/builder"
	"github.com/vk/attrgrid/internal/completion"
	"github.com/vk/attrgrid/internal/ctxlog"
)

// Run executes one completion pass: it instantiates the root pipeline,
// applies the initial attribute values, completes every parameter the
// configured strategies can derive, and writes the report.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	rootName, err := a.rootPipelineName(appConfig)
	if err != nil {
		return err
	}

	pipeline, err := builder.BuildPipeline(ctx, a.model, rootName)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	logger.Info("Pipeline instantiated.", "pipeline", rootName, "nodes", len(pipeline.Nodes()))

	engine, err := a.env.EngineFor(ctx, pipeline, "")
	if err != nil {
		return fmt.Errorf("failed to obtain completion engine: %w", err)
	}

	attrValues := a.initialAttributes(ctx, engine, appConfig)
	inputs := map[string]cty.Value{}
	if len(attrValues) > 0 {
		inputs[completion.AttributesKey] = cty.ObjectVal(attrValues)
	}

	logger.Info("Starting parameter completion.", "pipeline", rootName, "attributes", len(attrValues))
	if err := engine.CompleteParameters(ctx, inputs); err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}
	logger.Info("Parameter completion finished.")

	if err := a.writeReport(pipeline); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// rootPipelineName returns the configured root pipeline, or the sole
// defined pipeline when the configuration contains exactly one.
func (a *App) rootPipelineName(appConfig *Config) (string, error) {
	if appConfig.Pipeline != "" {
		if _, ok := a.model.Pipelines[appConfig.Pipeline]; !ok {
			return "", fmt.Errorf("pipeline %q is not defined in the configuration", appConfig.Pipeline)
		}
		return appConfig.Pipeline, nil
	}

	switch len(a.model.Pipelines) {
	case 0:
		return "", fmt.Errorf("configuration defines no pipelines")
	case 1:
		for name := range a.model.Pipelines {
			return name, nil
		}
	}

	names := make([]string, 0, len(a.model.Pipelines))
	for name := range a.model.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return "", fmt.Errorf("configuration defines %d pipelines %v, select one with -pipeline", len(names), names)
}

// initialAttributes merges the configuration's defaults with the values
// given on the command line; the command line wins. Names the root
// attribute set does not declare are dropped, mirroring the engine's own
// import behavior.
func (a *App) initialAttributes(ctx context.Context, engine *completion.Engine, appConfig *Config) map[string]cty.Value {
	logger := ctxlog.FromContext(ctx)
	attrs := engine.AttributeValues(ctx)

	values := make(map[string]cty.Value)
	for name, value := range a.model.Defaults {
		if !attrs.Has(name) {
			logger.Warn("Ignoring default for undeclared attribute.", "attribute", name)
			continue
		}
		values[name] = value
	}
	for name, value := range appConfig.Attributes {
		if !attrs.Has(name) {
			logger.Warn("Ignoring undeclared attribute from the command line.", "attribute", name)
			continue
		}
		values[name] = cty.StringVal(value)
	}
	return values
}
