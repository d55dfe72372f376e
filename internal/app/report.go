package app

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"gopkg.in/yaml.v3"

	"github.com/vk/attrgrid/internal/process"
)

// parameterReport is one resolved (or unresolved) parameter in the report.
type parameterReport struct {
	Name      string  `yaml:"name"`
	Direction string  `yaml:"direction"`
	Value     *string `yaml:"value"`
}

// nodeReport is one pipeline node; nested pipelines recurse via Nodes.
type nodeReport struct {
	Node       string            `yaml:"node"`
	Process    string            `yaml:"process"`
	Parameters []parameterReport `yaml:"parameters,omitempty"`
	Nodes      []nodeReport      `yaml:"nodes,omitempty"`
}

// runReport is the document written after a completion pass.
type runReport struct {
	Pipeline   string            `yaml:"pipeline"`
	Parameters []parameterReport `yaml:"parameters,omitempty"`
	Nodes      []nodeReport      `yaml:"nodes"`
}

// writeReport renders the completed pipeline as YAML on the output writer.
func (a *App) writeReport(pipeline *process.Pipeline) error {
	report := buildReport(pipeline)
	encoded, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = a.outW.Write(encoded)
	return err
}

func buildReport(pipeline *process.Pipeline) *runReport {
	return &runReport{
		Pipeline:   pipeline.Name(),
		Parameters: reportParameters(pipeline),
		Nodes:      reportNodes(pipeline),
	}
}

func reportNodes(pipeline *process.Pipeline) []nodeReport {
	var nodes []nodeReport
	for _, node := range pipeline.Nodes() {
		entry := nodeReport{
			Node:    node.Name,
			Process: node.Process().Name(),
		}
		if node.Kind == process.SubPipelineNode {
			sub := node.Process().(*process.Pipeline)
			entry.Parameters = reportParameters(sub)
			entry.Nodes = reportNodes(sub)
		} else {
			entry.Parameters = reportParameters(node.Process())
		}
		nodes = append(nodes, entry)
	}
	return nodes
}

func reportParameters(proc process.Process) []parameterReport {
	var params []parameterReport
	for _, param := range proc.Parameters() {
		entry := parameterReport{
			Name:      param.Name,
			Direction: param.Direction.String(),
		}
		if value, ok := proc.GetParameter(param.Name); ok && value != cty.NilVal && !value.IsNull() {
			entry.Value = renderValue(value)
		}
		params = append(params, entry)
	}
	return params
}

// renderValue formats a parameter value for the report. Strings render
// verbatim; other types fall back to cty's string conversion or, failing
// that, a Go-syntax dump.
func renderValue(value cty.Value) *string {
	if str, err := convert.Convert(value, cty.String); err == nil {
		rendered := str.AsString()
		return &rendered
	}
	rendered := fmt.Sprintf("%#v", value)
	return &rendered
}
