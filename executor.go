package chiron

import (
	"context"
	"fmt"

	"github.com/chiron-labs/go-chiron/src/storage"
)

// Stores bundles the backing-store handles injected into every tool
// invocation. The handles are opaque to this package and never advertised to
// the model; thread safety is the owner's concern.
type Stores struct {
	DB      storage.Database
	Vectors storage.VectorStore
}

// ErrorPayload is the model-visible shape of a failed tool call.
func ErrorPayload(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// Executor resolves tool names against a registry and runs them with the
// injected store handles. Every failure mode, including an unknown name and a
// panicking tool, becomes an error payload; nothing escapes into the loop.
type Executor struct {
	registry *Registry
	stores   *Stores
}

// NewExecutor builds an executor over the given registry and store handles.
func NewExecutor(registry *Registry, stores *Stores) *Executor {
	if registry == nil {
		registry = NewRegistry()
	}
	if stores == nil {
		stores = &Stores{}
	}
	return &Executor{registry: registry, stores: stores}
}

// Registry returns the registry this executor resolves against.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs the named tool and returns its JSON-serializable result. An
// unknown name yields an "Unknown tool" error payload without invoking
// anything; the model chose an invalid name and should see that as data.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) any {
	tool, ok := e.registry.Lookup(name)
	if !ok {
		return ErrorPayload(fmt.Sprintf("Unknown tool: %s", name))
	}
	if args == nil {
		args = map[string]any{}
	}
	value, err := e.invoke(ctx, tool, args)
	if err != nil {
		return ErrorPayload(err.Error())
	}
	return value
}

// invoke isolates the tool call so a panic inside an implementation is
// indistinguishable from a returned error.
func (e *Executor) invoke(ctx context.Context, tool Tool, args map[string]any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = nil
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return tool.Invoke(ctx, ToolRequest{Stores: e.stores, Arguments: args})
}
