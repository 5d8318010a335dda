package chiron

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Parameter types a tool schema may declare. These map one-to-one onto JSON
// Schema primitive types; anything outside this set is rejected at
// registration time rather than silently downgraded.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeNull    = "null"
)

// Param describes one tool parameter. Backing-store handles are never
// declared here; the executor injects them outside the model's view.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool

	// Items is the element type for array parameters.
	Items string
}

// ToolSpec is the hand-written, immutable schema descriptor advertised to
// model backends alongside the tool's name and description.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

// InputSchema renders the spec as a JSON-Schema object suitable for the
// backend wire formats.
func (s ToolSpec) InputSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == TypeArray {
			items := p.Items
			if items == "" {
				items = TypeString
			}
			prop["items"] = map[string]any{"type": items}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// ToolRequest carries the argument bag the model supplied plus the injected
// backing-store handles.
type ToolRequest struct {
	Stores    *Stores
	Arguments map[string]any
}

// Tool is one callable operation: a schema descriptor plus its
// implementation. Invoke returns a JSON-serializable value; failures are
// returned as errors and converted to error payloads by the executor.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (any, error)
}

type toolFunc struct {
	spec ToolSpec
	fn   func(ctx context.Context, req ToolRequest) (any, error)
}

func (t *toolFunc) Spec() ToolSpec { return t.spec }

func (t *toolFunc) Invoke(ctx context.Context, req ToolRequest) (any, error) {
	return t.fn(ctx, req)
}

// NewTool wraps a function and its descriptor as a Tool.
func NewTool(spec ToolSpec, fn func(ctx context.Context, req ToolRequest) (any, error)) Tool {
	return &toolFunc{spec: spec, fn: fn}
}

var validParamTypes = map[string]bool{
	TypeString:  true,
	TypeInteger: true,
	TypeNumber:  true,
	TypeBoolean: true,
	TypeArray:   true,
	TypeNull:    true,
}

// Registry maps tool names to implementations. It is built once at startup
// and read-only afterwards; the lock only guards against misuse during
// construction.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	specs map[string]ToolSpec
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		specs: make(map[string]ToolSpec),
	}
}

// Register adds a tool. Duplicate names and schema errors are registration
// failures, not silent overwrites: both almost always indicate a wiring bug.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	spec := tool.Spec()
	key := strings.ToLower(strings.TrimSpace(spec.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}
	if spec.Description == "" {
		spec.Description = fmt.Sprintf("Tool: %s", spec.Name)
	}
	for _, p := range spec.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("tool %s: parameter with empty name", spec.Name)
		}
		if !validParamTypes[p.Type] {
			return fmt.Errorf("tool %s: parameter %s has unknown type %q", spec.Name, p.Name, p.Type)
		}
		if p.Items != "" && !validParamTypes[p.Items] {
			return fmt.Errorf("tool %s: parameter %s has unknown item type %q", spec.Name, p.Name, p.Items)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[key]; exists {
		return fmt.Errorf("tool %s already registered", spec.Name)
	}
	r.tools[key] = tool
	r.specs[key] = spec
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	return tool, ok
}

// Specs returns the tool descriptors in registration order.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, key := range r.order {
		specs = append(specs, r.specs[key])
	}
	return specs
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
