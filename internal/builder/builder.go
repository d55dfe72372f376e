// Package builder bridges the static configuration model and the live
// object tree the completion engine works on: it instantiates processes
// and (recursively) pipelines from their definitions, and registers the
// configured attribute schemas with the strategy registry.
package builder

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/completion"
	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/process"
	"github.com/vk/attrgrid/internal/registry"
)

// BuildPipeline instantiates the named pipeline definition, resolving
// nested pipeline references recursively. Every node gets a fresh process
// instance; instances are never shared between nodes.
func BuildPipeline(ctx context.Context, model *config.Model, name string) (*process.Pipeline, error) {
	return buildPipeline(ctx, model, name, make(map[string]bool))
}

func buildPipeline(ctx context.Context, model *config.Model, name string, building map[string]bool) (*process.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	def, ok := model.Pipelines[name]
	if !ok {
		return nil, fmt.Errorf("pipeline definition %q not found", name)
	}
	if building[name] {
		return nil, fmt.Errorf("pipeline %q is defined in terms of itself", name)
	}
	building[name] = true
	defer delete(building, name)

	pipeline := process.NewPipeline(name)

	for _, nodeDef := range def.Nodes {
		var proc process.Process
		if _, isPipeline := model.Pipelines[nodeDef.Process]; isPipeline {
			sub, err := buildPipeline(ctx, model, nodeDef.Process, building)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q node %q: %w", name, nodeDef.Name, err)
			}
			proc = sub
		} else {
			atomic, err := BuildProcess(model, nodeDef.Process)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q node %q: %w", name, nodeDef.Name, err)
			}
			proc = atomic
		}
		if _, err := pipeline.AddNode(nodeDef.Name, proc); err != nil {
			return nil, err
		}
	}

	for _, linkDef := range def.Links {
		if err := pipeline.AddLink(linkDef.From, linkDef.To); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
	}

	logger.Debug("Pipeline instantiated.", "pipeline", name, "nodes", len(def.Nodes), "links", len(def.Links))
	return pipeline, nil
}

// BuildProcess instantiates an atomic process from its definition.
func BuildProcess(model *config.Model, name string) (*process.Base, error) {
	def, ok := model.Processes[name]
	if !ok {
		return nil, fmt.Errorf("process definition %q not found", name)
	}

	proc := process.NewBase(def.Name)
	for _, paramDef := range def.Parameters {
		direction := process.Input
		if paramDef.Output {
			direction = process.Output
		}
		err := proc.AddParameter(&process.Parameter{
			Name:      paramDef.Name,
			Direction: direction,
			IsPath:    paramDef.IsPath,
			Pattern:   paramDef.Pattern,
		})
		if err != nil {
			return nil, err
		}
	}
	return proc, nil
}

// RegisterSchemas turns every schema definition into an attribute-set
// builder and registers it under each process (or contextual) name the
// schema is bound to.
func RegisterSchemas(ctx context.Context, model *config.Model, reg *registry.Registry) {
	logger := ctxlog.FromContext(ctx)

	for _, def := range model.Schemas {
		builder := schemaBuilder(def)
		for _, procName := range def.Processes {
			reg.Register(registry.CategorySchema, procName, builder)
		}
		logger.Debug("Schema registered.",
			"schema", def.Name, "attributes", len(def.Attributes), "bound_to", def.Processes)
	}
}

// schemaBuilder captures a schema definition as a completion.SchemaBuilder
// closure declaring the attributes in definition order.
func schemaBuilder(def *config.SchemaDefinition) completion.SchemaBuilder {
	return func(proc process.Process) (*attrset.Set, error) {
		attrs := attrset.New()
		for _, attrDef := range def.Attributes {
			defaultVal := cty.NilVal
			if attrDef.Default != nil {
				defaultVal = *attrDef.Default
			}
			if err := attrs.Declare(attrDef.Name, attrDef.Type, defaultVal); err != nil {
				return nil, fmt.Errorf("schema %q: %w", def.Name, err)
			}
		}
		return attrs, nil
	}
}
