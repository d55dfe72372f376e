package completion

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/process"
)

// AttributesKey is the reserved key under which CompleteParameters inputs
// carry attribute values, as a single cty object or map value. All callers
// share this constant.
const AttributesKey = "attributes"

// Engine owns the attribute set of one process and performs parameter
// completion for it. Engines are keyed by (process, contextual name) and
// cached on the Environment; use Environment.EngineFor, not NewEngine,
// unless you are writing an EngineFactory.
type Engine struct {
	env  *Environment
	proc process.Process
	name string

	attrs *attrset.Set
	// completing guards against a completion pass re-entering itself when
	// attribute-change notifications fire during the pass.
	completing bool
	unwatch    func()
}

// NewEngine constructs a bare engine. name is the dotted contextual name
// reflecting the process's position in the pipeline hierarchy; empty means
// top level.
func NewEngine(env *Environment, proc process.Process, name string) *Engine {
	return &Engine{env: env, proc: proc, name: name}
}

// Process returns the process this engine serves.
func (e *Engine) Process() process.Process {
	return e.proc
}

// ContextName returns the engine's dotted contextual name, defaulting to
// the process name at top level.
func (e *Engine) ContextName() string {
	if e.name != "" {
		return e.name
	}
	return e.proc.Name()
}

// AttributeValues returns this engine's attribute set, creating it on
// first call.
//
// Construction tries a registered schema first, under the contextual name
// then the process name. When no schema matches and the process is a
// pipeline, the set is merged bottom-up from the children: every attribute
// a child declares that the parent does not yet have is copied in together
// with its current value, so on name collisions the first-declaring child
// wins. A child whose engine cannot be built is skipped and the merge
// continues with a possibly incomplete set.
func (e *Engine) AttributeValues(ctx context.Context) *attrset.Set {
	if e.attrs != nil {
		return e.attrs
	}
	logger := ctxlog.FromContext(ctx)

	if builder, ok := e.env.schemaFor(ctx, e.proc, e.name); ok {
		attrs, err := builder(e.proc)
		if err == nil {
			e.attrs = attrs
			logger.Debug("Attribute set built from registered schema.",
				"context", e.ContextName(), "attributes", attrs.Len())
			return e.attrs
		}
		logger.Debug("Schema construction failed, falling back to generic set.",
			"context", e.ContextName(), "error", err)
	}

	e.attrs = attrset.New()

	pipeline, ok := e.proc.(*process.Pipeline)
	if !ok {
		return e.attrs
	}

	for _, node := range pipeline.Nodes() {
		childName := e.ContextName() + "." + node.Name
		child, err := e.env.EngineFor(ctx, node.Process(), childName)
		if err != nil {
			logger.Debug("Skipping child during attribute merge, engine construction failed.",
				"child", childName, "error", err)
			continue
		}
		e.attrs.CopyMissingFrom(child.AttributeValues(ctx))
	}
	logger.Debug("Attribute set merged from pipeline children.",
		"context", e.ContextName(), "attributes", e.attrs.Len())

	return e.attrs
}

// CompleteParameters resolves parameter values for this engine's process.
//
// inputs may mix plain parameter values for the process itself with
// attribute values nested under AttributesKey; both are applied first,
// attributes before parameters. For a pipeline the engine then exports its
// attribute values and pushes them into every child engine in topological
// order, recursively completing each child and forwarding resolved outputs
// along the pipeline's links. Finally the engine resolves its own
// parameters from the attribute set.
//
// Children complete before the pipeline itself so the pipeline-level
// strategy can overwrite subordinate choices afterwards. Parameters may
// therefore be written more than once per pass; there is no locking of
// already-set parameters yet.
//
// Failures confined to one child or one parameter are logged and skipped;
// only structural errors abort the pass.
func (e *Engine) CompleteParameters(ctx context.Context, inputs map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx)

	wasCompleting := e.completing
	e.completing = true
	defer func() { e.completing = wasCompleting }()

	if err := e.SetParameters(ctx, inputs); err != nil {
		return err
	}

	if pipeline, ok := e.proc.(*process.Pipeline); ok {
		if err := e.completeChildren(ctx, pipeline); err != nil {
			return err
		}
	}

	attrs := e.AttributeValues(ctx)
	for _, param := range e.proc.Parameters() {
		value, err := e.AttributesToPath(ctx, param.Name, attrs)
		if err != nil {
			if IsStructural(err) {
				return err
			}
			logger.Debug("Parameter left unset, resolution failed.",
				"context", e.ContextName(),
				"error", &ResolveError{Parameter: param.Name, Err: err})
			continue
		}
		if value == cty.NilVal || value.IsNull() {
			continue
		}
		if setChecker, ok := e.proc.(interface{ IsSet(string) bool }); ok && setChecker.IsSet(param.Name) {
			logger.Debug("Overwriting an already-set parameter.",
				"context", e.ContextName(), "parameter", param.Name)
		}
		if err := e.proc.SetParameter(param.Name, value); err != nil {
			logger.Debug("Parameter assignment rejected.",
				"context", e.ContextName(), "parameter", param.Name, "error", err)
		}
	}

	return nil
}

// completeChildren walks the pipeline's dependency graph in topological
// order, handing every child the parent's exported attribute values. The
// parent's resolved set flows strictly downward: children receive it
// as-is, their own defaults never travel back up during this pass.
func (e *Engine) completeChildren(ctx context.Context, pipeline *process.Pipeline) error {
	logger := ctxlog.FromContext(ctx)

	attrValues := e.AttributeValues(ctx).ExportObject()

	graph, err := pipeline.WorkflowGraph(ctx)
	if err != nil {
		return &StructuralError{Reason: "building workflow graph", Err: err}
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		return &StructuralError{Reason: "ordering workflow graph", Err: err}
	}

	for _, nodeName := range order {
		node, ok := pipeline.Node(nodeName)
		if !ok {
			return &StructuralError{Reason: fmt.Sprintf("workflow graph names unknown node %q", nodeName)}
		}
		childName := e.ContextName() + "." + nodeName

		child, err := e.env.EngineFor(ctx, node.Process(), childName)
		if err != nil {
			if IsStructural(err) {
				return err
			}
			logger.Debug("Skipping child, engine construction failed.",
				"error", &ChildError{Node: childName, Err: err})
			continue
		}

		if err := child.CompleteParameters(ctx, map[string]cty.Value{AttributesKey: attrValues}); err != nil {
			if IsStructural(err) {
				return err
			}
			logger.Debug("Child completion failed, continuing traversal.",
				"error", &ChildError{Node: childName, Err: err})
		}

		// Producers precede consumers in the traversal, so resolved
		// outputs can flow along links before downstream nodes resolve.
		if err := pipeline.PropagateFrom(ctx, nodeName); err != nil {
			logger.Debug("Link propagation failed.",
				"error", &ChildError{Node: childName, Err: err})
		}
	}

	return nil
}

// AttributesToPath asks the configured path-resolution strategy for the
// value of one parameter. Resolver errors are returned untranslated.
func (e *Engine) AttributesToPath(ctx context.Context, parameter string, attrs *attrset.Set) (cty.Value, error) {
	res, err := e.env.PathResolver(ctx)
	if err != nil {
		return cty.NilVal, err
	}
	return res.Resolve(ctx, e.proc, parameter, attrs)
}

// SetParameters applies an input mapping to the process: attribute values
// nested under AttributesKey first, plain parameters second. Attribute
// names not declared on the engine's set are silently dropped; this entry
// point never grows the schema.
func (e *Engine) SetParameters(ctx context.Context, inputs map[string]cty.Value) error {
	attrs := e.AttributeValues(ctx)

	if raw, ok := inputs[AttributesKey]; ok && raw != cty.NilVal && !raw.IsNull() {
		if !raw.Type().IsObjectType() && !raw.Type().IsMapType() {
			return fmt.Errorf("reserved key %q must carry an object of attribute values, got %s", AttributesKey, raw.Type().FriendlyName())
		}
		if raw.LengthInt() > 0 {
			if err := attrs.ImportValues(raw.AsValueMap()); err != nil {
				return err
			}
		}
	}

	for name, value := range inputs {
		if name == AttributesKey {
			continue
		}
		if err := e.proc.SetParameter(name, value); err != nil {
			return err
		}
	}
	return nil
}

// AttributesChanged reacts to a mutation of the attribute set by running a
// completion pass for just the changed attribute. Declarations and other
// structural notifications are ignored, and nothing happens while a pass
// is already running, so intermediate changes made during completion never
// re-trigger it.
func (e *Engine) AttributesChanged(ctx context.Context, kind attrset.ChangeKind, name string, oldValue, newValue cty.Value) {
	if kind != attrset.ValueChanged || e.completing {
		return
	}

	err := e.CompleteParameters(ctx, map[string]cty.Value{
		AttributesKey: cty.ObjectVal(map[string]cty.Value{name: newValue}),
	})
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Completion triggered by attribute change failed.",
			"context", e.ContextName(), "attribute", name, "error", err)
	}
}

// Watch registers AttributesChanged against the engine's attribute set so
// interactive edits re-trigger completion. Watching twice is a no-op.
func (e *Engine) Watch(ctx context.Context) {
	if e.unwatch != nil {
		return
	}
	e.unwatch = e.AttributeValues(ctx).OnChange(func(kind attrset.ChangeKind, name string, oldValue, newValue cty.Value) {
		e.AttributesChanged(ctx, kind, name, oldValue, newValue)
	})
}

// Unwatch removes the registration installed by Watch.
func (e *Engine) Unwatch() {
	if e.unwatch != nil {
		e.unwatch()
		e.unwatch = nil
	}
}
