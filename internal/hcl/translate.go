package hcl

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/schema"
)

// translate converts the merged HCL block structures into the agnostic
// config model.
func (l *Loader) translate(ctx context.Context, root *schema.Root) (*config.Model, error) {
	model := config.NewModel()

	if root.Completion != nil {
		if root.Completion.Enabled != nil {
			model.Completion.Enabled = *root.Completion.Enabled
		}
		if root.Completion.ProcessCompletion != "" {
			model.Completion.ProcessCompletion = root.Completion.ProcessCompletion
		}
		model.Completion.PathCompletion = root.Completion.PathCompletion
	}

	for _, block := range root.Schemas {
		def, err := translateSchema(block)
		if err != nil {
			return nil, err
		}
		if _, exists := model.Schemas[def.Name]; exists {
			return nil, fmt.Errorf("duplicate schema definition %q", def.Name)
		}
		model.Schemas[def.Name] = def
	}

	for _, block := range root.Processes {
		def, err := translateProcess(block)
		if err != nil {
			return nil, err
		}
		if _, exists := model.Processes[def.Name]; exists {
			return nil, fmt.Errorf("duplicate process definition %q", def.Name)
		}
		model.Processes[def.Name] = def
	}

	for _, block := range root.Pipelines {
		def := translatePipeline(block)
		if _, exists := model.Pipelines[def.Name]; exists {
			return nil, fmt.Errorf("duplicate pipeline definition %q", def.Name)
		}
		model.Pipelines[def.Name] = def
	}

	if root.Defaults != nil {
		defaults, err := translateDefaults(ctx, root.Defaults)
		if err != nil {
			return nil, err
		}
		model.Defaults = defaults
	}

	return model, nil
}

// translateType maps the configuration-facing type names onto cty types.
// An empty name means string, the overwhelmingly common case for
// path-bearing attributes.
func translateType(name string) (cty.Type, error) {
	switch name {
	case "", "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	default:
		return cty.NilType, fmt.Errorf("unsupported attribute type %q", name)
	}
}

func translateSchema(block *schema.SchemaBlock) (*config.SchemaDefinition, error) {
	def := &config.SchemaDefinition{
		Name:      block.Name,
		Processes: block.Processes,
	}
	for _, attr := range block.Attributes {
		typ, err := translateType(attr.Type)
		if err != nil {
			return nil, fmt.Errorf("schema %q attribute %q: %w", block.Name, attr.Name, err)
		}
		var defaultVal *cty.Value
		if attr.Default != nil && !attr.Default.IsNull() {
			defaultVal = attr.Default
		}
		def.Attributes = append(def.Attributes, &config.AttributeDefinition{
			Name:    attr.Name,
			Type:    typ,
			Default: defaultVal,
		})
	}
	return def, nil
}

func translateProcess(block *schema.ProcessBlock) (*config.ProcessDefinition, error) {
	def := &config.ProcessDefinition{Name: block.Name}
	seen := make(map[string]bool)

	appendParam := func(param *schema.ParameterBlock, output bool) error {
		if seen[param.Name] {
			return fmt.Errorf("process %q declares parameter %q twice", block.Name, param.Name)
		}
		seen[param.Name] = true
		def.Parameters = append(def.Parameters, &config.ParameterDefinition{
			Name:    param.Name,
			Output:  output,
			IsPath:  param.Path,
			Pattern: param.Pattern,
		})
		return nil
	}

	for _, in := range block.Inputs {
		if err := appendParam(in, false); err != nil {
			return nil, err
		}
	}
	for _, out := range block.Outputs {
		if err := appendParam(out, true); err != nil {
			return nil, err
		}
	}
	return def, nil
}

func translatePipeline(block *schema.PipelineBlock) *config.PipelineDefinition {
	def := &config.PipelineDefinition{Name: block.Name}
	for _, node := range block.Nodes {
		def.Nodes = append(def.Nodes, &config.NodeDefinition{
			Name:    node.Name,
			Process: node.Process,
		})
	}
	for _, link := range block.Links {
		def.Links = append(def.Links, &config.LinkDefinition{
			From: link.From,
			To:   link.To,
		})
	}
	return def
}

// translateDefaults evaluates the free-form attribute assignments of the
// defaults block into concrete values.
func translateDefaults(ctx context.Context, block *schema.DefaultsBlock) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read defaults block: %s", diags.Error())
	}

	defaults := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate default %q: %s", name, diags.Error())
		}
		defaults[name] = value
	}
	logger.Debug("Default attribute values loaded.", "count", len(defaults))
	return defaults, nil
}
