// Package schema holds the HCL block structures the loader decodes
// configuration files into. These are format-specific; the translate layer
// in internal/hcl converts them to the agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Root represents the top-level structure of a configuration file.
type Root struct {
	Completion *CompletionBlock `hcl:"completion,block"`
	Schemas    []*SchemaBlock   `hcl:"schema,block"`
	Processes  []*ProcessBlock  `hcl:"process,block"`
	Pipelines  []*PipelineBlock `hcl:"pipeline,block"`
	Defaults   *DefaultsBlock   `hcl:"defaults,block"`
}

// CompletionBlock selects the completion strategies by registry name.
type CompletionBlock struct {
	Enabled           *bool  `hcl:"enabled,optional"`
	ProcessCompletion string `hcl:"process_completion,optional"`
	PathCompletion    string `hcl:"path_completion,optional"`
}

// SchemaBlock declares a named attribute schema.
type SchemaBlock struct {
	Name       string            `hcl:"name,label"`
	Processes  []string          `hcl:"processes,optional"`
	Attributes []*AttributeBlock `hcl:"attribute,block"`
}

// AttributeBlock declares one attribute of a schema.
type AttributeBlock struct {
	Name    string     `hcl:"name,label"`
	Type    string     `hcl:"type,optional"`
	Default *cty.Value `hcl:"default,optional"`
}

// ProcessBlock is the blueprint of an atomic process.
type ProcessBlock struct {
	Name    string            `hcl:"name,label"`
	Inputs  []*ParameterBlock `hcl:"input,block"`
	Outputs []*ParameterBlock `hcl:"output,block"`
}

// ParameterBlock declares one input or output parameter.
type ParameterBlock struct {
	Name    string `hcl:"name,label"`
	Path    bool   `hcl:"path,optional"`
	Pattern string `hcl:"pattern,optional"`
}

// PipelineBlock is the blueprint of a pipeline.
type PipelineBlock struct {
	Name  string       `hcl:"name,label"`
	Nodes []*NodeBlock `hcl:"node,block"`
	Links []*LinkBlock `hcl:"link,block"`
}

// NodeBlock binds a node name to the process or pipeline it instantiates.
type NodeBlock struct {
	Name    string `hcl:"name,label"`
	Process string `hcl:"process"`
}

// LinkBlock connects a source output to a destination input, both written
// as "node.parameter".
type LinkBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// DefaultsBlock carries free-form initial attribute values. The attribute
// names are not known statically, so the body is decoded separately.
type DefaultsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
