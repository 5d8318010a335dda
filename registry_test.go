package chiron

import (
	"context"
	"strings"
	"testing"
)

func echoTool(name string, params ...Param) Tool {
	return NewTool(ToolSpec{Name: name, Description: "Echo for " + name, Params: params},
		func(_ context.Context, req ToolRequest) (any, error) {
			return req.Arguments, nil
		})
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("ping")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, ok := r.Lookup("ping"); !ok {
		t.Fatalf("registered tool not found")
	}
	if _, ok := r.Lookup("pong"); ok {
		t.Fatalf("unregistered tool found")
	}
}

func TestLookupNormalizesName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("Vector_Search")); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	for _, name := range []string{"vector_search", "VECTOR_SEARCH", "  vector_search  "} {
		if _, ok := r.Lookup(name); !ok {
			t.Fatalf("lookup failed for %q", name)
		}
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("store_knowledge")); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	err := r.Register(echoTool("Store_Knowledge"))
	if err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("failed registration mutated the registry: %d tools", r.Len())
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("   ")); err == nil {
		t.Fatalf("expected empty name to fail")
	}
}

func TestRegisterRejectsUnknownParamType(t *testing.T) {
	r := NewRegistry()
	err := r.Register(echoTool("bad", Param{Name: "blob", Type: "bytes"}))
	if err == nil {
		t.Fatalf("expected unknown parameter type to fail")
	}
	if !strings.Contains(err.Error(), "unknown type") {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("failed registration mutated the registry")
	}
}

func TestRegisterRejectsUnknownItemType(t *testing.T) {
	r := NewRegistry()
	err := r.Register(echoTool("bad", Param{Name: "xs", Type: TypeArray, Items: "tuple"}))
	if err == nil {
		t.Fatalf("expected unknown item type to fail")
	}
}

func TestRegisterDefaultsDescription(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewTool(ToolSpec{Name: "bare"}, func(context.Context, ToolRequest) (any, error) {
		return nil, nil
	})); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	specs := r.Specs()
	if specs[0].Description != "Tool: bare" {
		t.Fatalf("description not defaulted: %q", specs[0].Description)
	}
}

func TestSpecsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		if err := r.Register(echoTool(name)); err != nil {
			t.Fatalf("Register %s returned error: %v", name, err)
		}
	}
	specs := r.Specs()
	for i, name := range names {
		if specs[i].Name != name {
			t.Fatalf("spec %d: expected %q, got %q", i, name, specs[i].Name)
		}
	}
}

func TestInputSchemaShape(t *testing.T) {
	spec := ToolSpec{
		Name: "save_knowledge_node",
		Params: []Param{
			{Name: "title", Type: TypeString, Description: "Node title", Required: true},
			{Name: "depth", Type: TypeInteger},
			{Name: "prerequisites", Type: TypeArray, Items: TypeInteger},
			{Name: "tags", Type: TypeArray},
		},
	}
	schema := spec.InputSchema()
	if schema["type"] != "object" {
		t.Fatalf("schema type: %v", schema["type"])
	}
	props := schema["properties"].(map[string]any)
	if len(props) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(props))
	}
	title := props["title"].(map[string]any)
	if title["type"] != TypeString || title["description"] != "Node title" {
		t.Fatalf("unexpected title schema: %v", title)
	}
	prereqs := props["prerequisites"].(map[string]any)
	if prereqs["items"].(map[string]any)["type"] != TypeInteger {
		t.Fatalf("unexpected prerequisites items: %v", prereqs)
	}
	// Array without an item type defaults to string elements.
	tags := props["tags"].(map[string]any)
	if tags["items"].(map[string]any)["type"] != TypeString {
		t.Fatalf("unexpected tags items: %v", tags)
	}
	required := schema["required"].([]string)
	if len(required) != 1 || required[0] != "title" {
		t.Fatalf("unexpected required list: %v", required)
	}
}
