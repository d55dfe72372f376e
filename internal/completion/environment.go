package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/attrgrid/internal/attrset"
	"github.com/vk/attrgrid/internal/config"
	"github.com/vk/attrgrid/internal/ctxlog"
	"github.com/vk/attrgrid/internal/process"
	"github.com/vk/attrgrid/internal/registry"
	"github.com/vk/attrgrid/internal/resolver"
)

// SchemaBuilder constructs the specialized attribute set for a process.
// Implementations are registered under registry.CategorySchema, keyed by
// the process or contextual names the schema applies to.
type SchemaBuilder func(proc process.Process) (*attrset.Set, error)

// EngineFactory builds completion engines. Implementations are registered
// under registry.CategoryProcessCompletion; the built-in basic factory is
// the fallback for every lookup miss.
type EngineFactory interface {
	EngineFor(ctx context.Context, env *Environment, proc process.Process, name string) (*Engine, error)
}

// Environment ties a completion run together: the configured strategy
// names, the registry resolving them, and the engine side table. The side
// table realizes the attach-once contract: a process is keyed to at most
// one engine, and asking twice returns the same instance.
type Environment struct {
	settings *config.Completion
	reg      *registry.Registry
	engines  map[process.Process]*Engine
}

// NewEnvironment creates an Environment. A nil settings pointer means
// "attribute completion enabled, built-in strategies".
func NewEnvironment(settings *config.Completion, reg *registry.Registry) *Environment {
	if settings == nil {
		settings = &config.Completion{Enabled: true}
	}
	if reg == nil {
		reg = registry.New()
	}
	return &Environment{
		settings: settings,
		reg:      reg,
		engines:  make(map[process.Process]*Engine),
	}
}

// Enabled reports whether attribute-based configuration is active.
func (env *Environment) Enabled() bool {
	return env.settings.Enabled
}

// Registry returns the strategy registry. Primarily for tests and setup.
func (env *Environment) Registry() *registry.Registry {
	return env.reg
}

// EngineFor returns the completion engine for a process, constructing and
// caching it on first request. The configured process-completion factory
// is consulted first; a registry miss falls back to the basic factory.
func (env *Environment) EngineFor(ctx context.Context, proc process.Process, name string) (*Engine, error) {
	logger := ctxlog.FromContext(ctx)

	if engine, ok := env.engines[proc]; ok {
		return engine, nil
	}

	var factory EngineFactory = basicFactory{}
	if env.settings.Enabled && env.settings.ProcessCompletion != "" {
		impl, err := env.reg.Get(registry.CategoryProcessCompletion, env.settings.ProcessCompletion)
		switch {
		case err == nil:
			typed, ok := impl.(EngineFactory)
			if !ok {
				return nil, &StructuralError{
					Reason: fmt.Sprintf("process_completion %q is registered as %T, not an EngineFactory", env.settings.ProcessCompletion, impl),
				}
			}
			factory = typed
		case isNotFound(err):
			logger.Debug("No process-completion factory registered, using basic.",
				"name", env.settings.ProcessCompletion)
		default:
			return nil, err
		}
	}

	engine, err := factory.EngineFor(ctx, env, proc, name)
	if err != nil {
		return nil, err
	}
	env.engines[proc] = engine
	return engine, nil
}

// PathResolver returns the configured path-resolution strategy. A registry
// miss, an unset name, or disabled completion all yield the base Null
// resolver; an implementation of the wrong type is a structural error.
func (env *Environment) PathResolver(ctx context.Context) (resolver.Resolver, error) {
	logger := ctxlog.FromContext(ctx)

	if !env.settings.Enabled || env.settings.PathCompletion == "" {
		return resolver.Null{}, nil
	}

	impl, err := env.reg.Get(registry.CategoryPathCompletion, env.settings.PathCompletion)
	if err != nil {
		if isNotFound(err) {
			logger.Debug("No path-completion strategy registered, resolution disabled.",
				"name", env.settings.PathCompletion)
			return resolver.Null{}, nil
		}
		return nil, err
	}

	typed, ok := impl.(resolver.Resolver)
	if !ok {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("path_completion %q is registered as %T, not a Resolver", env.settings.PathCompletion, impl),
		}
	}
	return typed, nil
}

// schemaFor selects the specialized attribute-set builder for a process,
// trying the contextual name first and the plain process name second.
func (env *Environment) schemaFor(ctx context.Context, proc process.Process, contextName string) (SchemaBuilder, bool) {
	if !env.settings.Enabled {
		return nil, false
	}

	names := make([]string, 0, 2)
	if contextName != "" && contextName != proc.Name() {
		names = append(names, contextName)
	}
	names = append(names, proc.Name())

	for _, key := range names {
		impl, err := env.reg.Get(registry.CategorySchema, key)
		if err != nil {
			continue
		}
		if builder, ok := impl.(SchemaBuilder); ok {
			return builder, true
		}
		ctxlog.FromContext(ctx).Warn("Schema registered with unexpected type, ignoring.",
			"name", key, "type", fmt.Sprintf("%T", impl))
	}
	return nil, false
}

func isNotFound(err error) bool {
	var nf *registry.NotFoundError
	return errors.As(err, &nf)
}

// basicFactory is the default engine factory: a bare engine that conforms
// to the API. Without a registered schema or resolver it completes
// nothing, but pipelines still merge and propagate attributes through it.
type basicFactory struct{}

// EngineFor implements EngineFactory.
func (basicFactory) EngineFor(ctx context.Context, env *Environment, proc process.Process, name string) (*Engine, error) {
	return NewEngine(env, proc, name), nil
}

// BasicFactory returns the built-in engine factory for registration under
// a configured name.
func BasicFactory() EngineFactory {
	return basicFactory{}
}
