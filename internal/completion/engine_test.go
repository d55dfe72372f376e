package completion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/process"
	"github.com/vk/attrgrid/internal/registry"
	"github.com/vk/attrgrid/internal/resolver"
)

// subjectSchema declares the attributes shared by the test fixtures.
func subjectSchema() SchemaBuilder {
	return func(process.Process) (*attrset.Set, error) {
		attrs := attrset.New()
		if err := attrs.Declare("root", cty.String, cty.NilVal); err != nil {
			return nil, err
		}
		if err := attrs.Declare("subject", cty.String, cty.StringVal("s01")); err != nil {
			return nil, err
		}
		return attrs, nil
	}
}

// newStage builds an atomic process with one path input and one templated
// path output.
func newStage(t *testing.T, name, outputPattern string) *process.Base {
	t.Helper()
	proc := process.NewBase(name)
	require.NoError(t, proc.AddParameter(&process.Parameter{
		Name: "image", Direction: process.Input, IsPath: true,
	}))
	require.NoError(t, proc.AddParameter(&process.Parameter{
		Name: "result", Direction: process.Output, IsPath: true, Pattern: outputPattern,
	}))
	return proc
}

func attrObject(values map[string]cty.Value) map[string]cty.Value {
	return map[string]cty.Value{AttributesKey: cty.ObjectVal(values)}
}

func TestAttributeValues(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		env := NewEnvironment(nil, nil)
		engine, err := env.EngineFor(ctx, process.NewBase("average"), "")
		require.NoError(t, err)

		first := engine.AttributeValues(ctx)
		second := engine.AttributeValues(ctx)
		assert.Same(t, first, second)
	})

	t.Run("contextual schema beats process schema", func(t *testing.T) {
		reg := registry.New()
		reg.Register(registry.CategorySchema, "study.average", SchemaBuilder(func(process.Process) (*attrset.Set, error) {
			attrs := attrset.New()
			return attrs, attrs.Declare("marker", cty.String, cty.StringVal("contextual"))
		}))
		reg.Register(registry.CategorySchema, "average", SchemaBuilder(func(process.Process) (*attrset.Set, error) {
			attrs := attrset.New()
			return attrs, attrs.Declare("marker", cty.String, cty.StringVal("generic"))
		}))
		env := NewEnvironment(nil, reg)

		engine, err := env.EngineFor(ctx, process.NewBase("average"), "study.average")
		require.NoError(t, err)

		v, ok := engine.AttributeValues(ctx).Get("marker")
		require.True(t, ok)
		assert.Equal(t, "contextual", v.AsString())
	})

	t.Run("process schema is the fallback", func(t *testing.T) {
		reg := registry.New()
		reg.Register(registry.CategorySchema, "average", subjectSchema())
		env := NewEnvironment(nil, reg)

		engine, err := env.EngineFor(ctx, process.NewBase("average"), "study.average")
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "subject"}, engine.AttributeValues(ctx).Names())
	})

	t.Run("no schema and no children yields an empty set", func(t *testing.T) {
		env := NewEnvironment(nil, nil)
		engine, err := env.EngineFor(ctx, process.NewBase("average"), "")
		require.NoError(t, err)
		assert.Zero(t, engine.AttributeValues(ctx).Len())
	})

	t.Run("pipeline merges children, first declaration wins", func(t *testing.T) {
		reg := registry.New()
		reg.Register(registry.CategorySchema, "first", SchemaBuilder(func(process.Process) (*attrset.Set, error) {
			attrs := attrset.New()
			return attrs, attrs.Declare("subject", cty.String, cty.StringVal("from-first"))
		}))
		reg.Register(registry.CategorySchema, "second", SchemaBuilder(func(process.Process) (*attrset.Set, error) {
			attrs := attrset.New()
			if err := attrs.Declare("subject", cty.String, cty.StringVal("from-second")); err != nil {
				return nil, err
			}
			return attrs, attrs.Declare("session", cty.String, cty.StringVal("pre"))
		}))
		env := NewEnvironment(nil, reg)

		pip := process.NewPipeline("study")
		_, err := pip.AddNode("a", newStage(t, "first", ""))
		require.NoError(t, err)
		_, err = pip.AddNode("b", newStage(t, "second", ""))
		require.NoError(t, err)

		engine, err := env.EngineFor(ctx, pip, "")
		require.NoError(t, err)

		attrs := engine.AttributeValues(ctx)
		assert.Equal(t, []string{"subject", "session"}, attrs.Names())
		v, _ := attrs.Get("subject")
		assert.Equal(t, "from-first", v.AsString())
	})
}

func TestSetParameters(t *testing.T) {
	ctx := context.Background()

	newEngine := func(t *testing.T) *Engine {
		reg := registry.New()
		reg.Register(registry.CategorySchema, "average", subjectSchema())
		env := NewEnvironment(nil, reg)
		engine, err := env.EngineFor(ctx, newStage(t, "average", ""), "")
		require.NoError(t, err)
		return engine
	}

	t.Run("attributes and plain parameters both apply", func(t *testing.T) {
		engine := newEngine(t)
		err := engine.SetParameters(ctx, map[string]cty.Value{
			AttributesKey: cty.ObjectVal(map[string]cty.Value{"subject": cty.StringVal("s02")}),
			"image":       cty.StringVal("/data/raw.nii"),
		})
		require.NoError(t, err)

		v, _ := engine.AttributeValues(ctx).Get("subject")
		assert.Equal(t, "s02", v.AsString())
		v, _ = engine.Process().GetParameter("image")
		assert.Equal(t, "/data/raw.nii", v.AsString())
	})

	t.Run("undeclared attributes are dropped, never declared", func(t *testing.T) {
		engine := newEngine(t)
		err := engine.SetParameters(ctx, attrObject(map[string]cty.Value{
			"subject": cty.StringVal("s02"),
			"ghost":   cty.StringVal("dropped"),
		}))
		require.NoError(t, err)
		assert.False(t, engine.AttributeValues(ctx).Has("ghost"))
	})

	t.Run("reserved key must carry an object", func(t *testing.T) {
		engine := newEngine(t)
		err := engine.SetParameters(ctx, map[string]cty.Value{AttributesKey: cty.StringVal("nope")})
		assert.ErrorContains(t, err, "must carry an object")
	})

	t.Run("unknown plain parameter is an error", func(t *testing.T) {
		engine := newEngine(t)
		err := engine.SetParameters(ctx, map[string]cty.Value{"ghost": cty.StringVal("x")})
		assert.Error(t, err)
	})
}

func TestCompleteParametersPipeline(t *testing.T) {
	ctx := context.Background()

	reg := registry.New()
	schema := subjectSchema()
	reg.Register(registry.CategorySchema, "average", schema)
	reg.Register(registry.CategorySchema, "smooth", schema)
	reg.Register(registry.CategoryPathCompletion, "pattern", resolver.Pattern{})
	env := NewEnvironment(&config.Completion{Enabled: true, PathCompletion: "pattern"}, reg)

	average := newStage(t, "average", "{root}/{subject}/average.nii")
	smooth := newStage(t, "smooth", "{root}/{subject}/smoothed.nii")

	pip := process.NewPipeline("study")
	_, err := pip.AddNode("average", average)
	require.NoError(t, err)
	_, err = pip.AddNode("smooth", smooth)
	require.NoError(t, err)
	require.NoError(t, pip.AddLink("average.result", "smooth.image"))

	engine, err := env.EngineFor(ctx, pip, "")
	require.NoError(t, err)

	err = engine.CompleteParameters(ctx, attrObject(map[string]cty.Value{
		"root":    cty.StringVal("/data"),
		"subject": cty.StringVal("s01"),
	}))
	require.NoError(t, err)

	t.Run("children resolve from the parent's attributes", func(t *testing.T) {
		v, _ := average.GetParameter("result")
		assert.Equal(t, "/data/s01/average.nii", v.AsString())
		v, _ = smooth.GetParameter("result")
		assert.Equal(t, "/data/s01/smoothed.nii", v.AsString())
	})

	t.Run("resolved outputs flow along links", func(t *testing.T) {
		out, _ := average.GetParameter("result")
		in, _ := smooth.GetParameter("image")
		assert.Equal(t, out, in)
	})

	t.Run("attributes flow downward only", func(t *testing.T) {
		childEngine, err := env.EngineFor(ctx, average, "study.average")
		require.NoError(t, err)
		v, _ := childEngine.AttributeValues(ctx).Get("root")
		assert.Equal(t, "/data", v.AsString())

		// The parent keeps its own resolution; nothing new travelled up.
		assert.Equal(t, []string{"root", "subject"}, engine.AttributeValues(ctx).Names())
	})
}

func TestCompleteParametersPartialFailure(t *testing.T) {
	ctx := context.Background()

	reg := registry.New()
	reg.Register(registry.CategorySchema, "first", subjectSchema())
	reg.Register(registry.CategorySchema, "third", subjectSchema())
	// The middle stage disagrees on the subject type, so pushing the
	// parent's string value into it fails during import.
	reg.Register(registry.CategorySchema, "second", SchemaBuilder(func(process.Process) (*attrset.Set, error) {
		attrs := attrset.New()
		return attrs, attrs.Declare("subject", cty.Number, cty.NilVal)
	}))
	reg.Register(registry.CategoryPathCompletion, "pattern", resolver.Pattern{})
	env := NewEnvironment(&config.Completion{Enabled: true, PathCompletion: "pattern"}, reg)

	first := newStage(t, "first", "{root}/{subject}/first.nii")
	second := newStage(t, "second", "{subject}/second.nii")
	third := newStage(t, "third", "{root}/{subject}/third.nii")

	pip := process.NewPipeline("study")
	_, err := pip.AddNode("first", first)
	require.NoError(t, err)
	_, err = pip.AddNode("second", second)
	require.NoError(t, err)
	_, err = pip.AddNode("third", third)
	require.NoError(t, err)

	engine, err := env.EngineFor(ctx, pip, "")
	require.NoError(t, err)

	err = engine.CompleteParameters(ctx, attrObject(map[string]cty.Value{
		"root":    cty.StringVal("/data"),
		"subject": cty.StringVal("s01"),
	}))
	require.NoError(t, err)

	v, _ := first.GetParameter("result")
	assert.Equal(t, "/data/s01/first.nii", v.AsString())
	v, _ = third.GetParameter("result")
	assert.Equal(t, "/data/s01/third.nii", v.AsString())

	// The failed child is skipped, not resolved and not fatal.
	assert.False(t, second.IsSet("result"))
}

func TestCompleteParametersStructuralFailure(t *testing.T) {
	ctx := context.Background()

	reg := registry.New()
	reg.Register(registry.CategorySchema, "average", subjectSchema())
	reg.Register(registry.CategoryPathCompletion, "broken", 42)
	env := NewEnvironment(&config.Completion{Enabled: true, PathCompletion: "broken"}, reg)

	engine, err := env.EngineFor(ctx, newStage(t, "average", "{root}/average.nii"), "")
	require.NoError(t, err)

	err = engine.CompleteParameters(ctx, attrObject(map[string]cty.Value{"root": cty.StringVal("/data")}))
	require.Error(t, err)
	assert.True(t, IsStructural(err))
}

func TestCompleteParametersNullResolution(t *testing.T) {
	ctx := context.Background()

	reg := registry.New()
	reg.Register(registry.CategorySchema, "average", subjectSchema())
	env := NewEnvironment(&config.Completion{Enabled: true}, reg)

	average := newStage(t, "average", "{root}/{subject}/average.nii")
	engine, err := env.EngineFor(ctx, average, "")
	require.NoError(t, err)

	err = engine.CompleteParameters(ctx, attrObject(map[string]cty.Value{
		"root":    cty.StringVal("/data"),
		"subject": cty.StringVal("s01"),
	}))
	require.NoError(t, err)

	// Without a path strategy nothing resolves and nothing errors.
	assert.False(t, average.IsSet("result"))
}

// mutatingResolver flips an attribute during resolution, the way an
// interactive strategy might, to exercise the re-entrancy guard.
type mutatingResolver struct {
	calls *int
}

func (m mutatingResolver) Resolve(ctx context.Context, proc process.Process, parameter string, attrs *attrset.Set) (cty.Value, error) {
	*m.calls++
	if err := attrs.Set("subject", cty.StringVal("mutated")); err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal("/resolved/" + parameter), nil
}

func TestWatchReentrancy(t *testing.T) {
	ctx := context.Background()

	calls := 0
	reg := registry.New()
	reg.Register(registry.CategorySchema, "average", subjectSchema())
	reg.Register(registry.CategoryPathCompletion, "mutating", mutatingResolver{calls: &calls})
	env := NewEnvironment(&config.Completion{Enabled: true, PathCompletion: "mutating"}, reg)

	average := newStage(t, "average", "{root}/{subject}/average.nii")
	engine, err := env.EngineFor(ctx, average, "")
	require.NoError(t, err)

	engine.Watch(ctx)
	engine.Watch(ctx) // second call is a no-op

	attrs := engine.AttributeValues(ctx)
	require.NoError(t, attrs.Set("subject", cty.StringVal("s02")))

	// One pass ran, resolving both parameters once each. The mutation the
	// resolver made mid-pass did not re-trigger completion.
	assert.Equal(t, 2, calls)
	v, _ := attrs.Get("subject")
	assert.Equal(t, "mutated", v.AsString())
	v, _ = average.GetParameter("result")
	assert.Equal(t, "/resolved/result", v.AsString())

	t.Run("declarations never trigger completion", func(t *testing.T) {
		calls = 0
		require.NoError(t, attrs.Declare("session", cty.String, cty.NilVal))
		assert.Zero(t, calls)
	})

	t.Run("unwatch stops delivery", func(t *testing.T) {
		calls = 0
		engine.Unwatch()
		require.NoError(t, attrs.Set("subject", cty.StringVal("s03")))
		assert.Zero(t, calls)
	})
}
