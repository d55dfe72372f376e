package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/completion"
	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/process"
	"github.com/vk/attrgrid/internal/registry"
)

// studyModel builds the configuration model used across these tests: two
// atomic processes, a pipeline wiring them, and a nesting pipeline.
func studyModel() *config.Model {
	model := config.NewModel()

	model.Processes["average"] = &config.ProcessDefinition{
		Name: "average",
		Parameters: []*config.ParameterDefinition{
			{Name: "image", IsPath: true},
			{Name: "mean", Output: true, IsPath: true, Pattern: "{root}/{subject}/average.nii"},
		},
	}
	model.Processes["smooth"] = &config.ProcessDefinition{
		Name: "smooth",
		Parameters: []*config.ParameterDefinition{
			{Name: "image", IsPath: true},
			{Name: "smoothed", Output: true, IsPath: true},
		},
	}

	model.Pipelines["study"] = &config.PipelineDefinition{
		Name: "study",
		Nodes: []*config.NodeDefinition{
			{Name: "average", Process: "average"},
			{Name: "smooth", Process: "smooth"},
		},
		Links: []*config.LinkDefinition{
			{From: "average.mean", To: "smooth.image"},
		},
	}
	model.Pipelines["cohort"] = &config.PipelineDefinition{
		Name: "cohort",
		Nodes: []*config.NodeDefinition{
			{Name: "study", Process: "study"},
		},
	}
	return model
}

func TestBuildProcess(t *testing.T) {
	model := studyModel()

	proc, err := BuildProcess(model, "average")
	require.NoError(t, err)
	assert.Equal(t, "average", proc.Name())

	param, ok := proc.Parameter("mean")
	require.True(t, ok)
	assert.Equal(t, process.Output, param.Direction)
	assert.True(t, param.IsPath)
	assert.Equal(t, "{root}/{subject}/average.nii", param.Pattern)

	_, err = BuildProcess(model, "ghost")
	assert.ErrorContains(t, err, "not found")
}

func TestBuildPipeline(t *testing.T) {
	ctx := context.Background()
	model := studyModel()

	t.Run("nodes and links", func(t *testing.T) {
		pip, err := BuildPipeline(ctx, model, "study")
		require.NoError(t, err)
		assert.Equal(t, "study", pip.Name())
		require.Len(t, pip.Nodes(), 2)

		node, ok := pip.Node("average")
		require.True(t, ok)
		assert.Equal(t, process.AtomicNode, node.Kind)
		require.Len(t, pip.Links(), 1)
	})

	t.Run("pipeline references nest", func(t *testing.T) {
		pip, err := BuildPipeline(ctx, model, "cohort")
		require.NoError(t, err)

		node, ok := pip.Node("study")
		require.True(t, ok)
		assert.Equal(t, process.SubPipelineNode, node.Kind)

		sub, ok := node.Process().(*process.Pipeline)
		require.True(t, ok)
		assert.Len(t, sub.Nodes(), 2)
	})

	t.Run("instances are never shared", func(t *testing.T) {
		first, err := BuildPipeline(ctx, model, "study")
		require.NoError(t, err)
		second, err := BuildPipeline(ctx, model, "study")
		require.NoError(t, err)

		a, _ := first.Node("average")
		b, _ := second.Node("average")
		assert.NotSame(t, a.Process(), b.Process())
	})

	t.Run("unknown pipeline", func(t *testing.T) {
		_, err := BuildPipeline(ctx, model, "ghost")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("self-referential definition", func(t *testing.T) {
		model := studyModel()
		model.Pipelines["loop"] = &config.PipelineDefinition{
			Name:  "loop",
			Nodes: []*config.NodeDefinition{{Name: "again", Process: "loop"}},
		}
		_, err := BuildPipeline(ctx, model, "loop")
		assert.ErrorContains(t, err, "defined in terms of itself")
	})

	t.Run("bad link fails the build", func(t *testing.T) {
		model := studyModel()
		model.Pipelines["study"].Links = []*config.LinkDefinition{
			{From: "average.mean", To: "ghost.image"},
		}
		_, err := BuildPipeline(ctx, model, "study")
		assert.ErrorContains(t, err, "unknown node")
	})
}

func TestRegisterSchemas(t *testing.T) {
	ctx := context.Background()
	model := studyModel()
	defaultVal := cty.StringVal("s01")
	model.Schemas["neuro"] = &config.SchemaDefinition{
		Name:      "neuro",
		Processes: []string{"average", "smooth"},
		Attributes: []*config.AttributeDefinition{
			{Name: "root", Type: cty.String},
			{Name: "subject", Type: cty.String, Default: &defaultVal},
		},
	}

	reg := registry.New()
	RegisterSchemas(ctx, model, reg)

	for _, name := range []string{"average", "smooth"} {
		impl, err := reg.Get(registry.CategorySchema, name)
		require.NoError(t, err)
		builder, ok := impl.(completion.SchemaBuilder)
		require.True(t, ok)

		attrs, err := builder(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "subject"}, attrs.Names())

		v, _ := attrs.Get("subject")
		assert.Equal(t, "s01", v.AsString())
		v, _ = attrs.Get("root")
		assert.True(t, v.IsNull())
	}
}
