package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Completion *Completion
	Schemas    map[string]*SchemaDefinition
	Processes  map[string]*ProcessDefinition
	Pipelines  map[string]*PipelineDefinition
	// Defaults holds initial attribute values applied to the root engine
	// before completion starts.
	Defaults map[string]cty.Value
}

// NewModel returns an empty model with attribute completion enabled and
// the built-in strategies selected.
func NewModel() *Model {
	return &Model{
		Completion: &Completion{
			Enabled:           true,
			ProcessCompletion: "basic",
		},
		Schemas:   make(map[string]*SchemaDefinition),
		Processes: make(map[string]*ProcessDefinition),
		Pipelines: make(map[string]*PipelineDefinition),
		Defaults:  make(map[string]cty.Value),
	}
}

// Completion selects the strategy implementations by registry name and
// gates attribute-based configuration as a whole.
type Completion struct {
	Enabled           bool
	ProcessCompletion string
	PathCompletion    string
}

// SchemaDefinition declares a named attribute schema and the process or
// contextual names it applies to.
type SchemaDefinition struct {
	Name string
	// Processes lists the process names (or dotted contextual names) this
	// schema is registered under.
	Processes  []string
	Attributes []*AttributeDefinition
}

// AttributeDefinition declares one attribute of a schema.
type AttributeDefinition struct {
	Name    string
	Type    cty.Type
	Default *cty.Value
}

// ProcessDefinition is the blueprint of an atomic process.
type ProcessDefinition struct {
	Name       string
	Parameters []*ParameterDefinition
}

// ParameterDefinition declares one parameter of a process definition.
type ParameterDefinition struct {
	Name    string
	Output  bool
	IsPath  bool
	Pattern string
}

// PipelineDefinition is the blueprint of a pipeline: named child nodes
// referencing process or pipeline definitions, plus data links.
type PipelineDefinition struct {
	Name  string
	Nodes []*NodeDefinition
	Links []*LinkDefinition
}

// NodeDefinition binds a node name to the definition it instantiates.
type NodeDefinition struct {
	Name string
	// Process names either a ProcessDefinition or a PipelineDefinition;
	// pipelines take precedence when both exist.
	Process string
}

// LinkDefinition is a "node.parameter" to "node.parameter" connection.
type LinkDefinition struct {
	From string
	To   string
}
