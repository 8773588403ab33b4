package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stravagpt/stravagpt/internal/llm"
)

type staticExecutor struct {
	result Result
	args   map[string]any
}

func (e *staticExecutor) Execute(_ context.Context, args map[string]any) (Result, error) {
	e.args = args
	return e.result, nil
}

func testDeclaration() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        "sample",
			Description: "sample tool",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"size": map[string]any{"type": "integer"},
					"mode": map[string]any{
						"type": "string",
						"enum": []string{"low", "medium"},
					},
					"keys": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []string{"name"},
			},
		},
	}
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(nil)
	executor := &staticExecutor{}
	if err := registry.Register(executor, testDeclaration()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := registry.Register(executor, testDeclaration()); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestDeclarationsSorted(t *testing.T) {
	registry := NewRegistry(nil)
	for _, name := range []string{"zebra", "alpha", "mid"} {
		decl := testDeclaration()
		decl.Function.Name = name
		registry.MustRegister(&staticExecutor{}, decl)
	}
	decls := registry.Declarations()
	got := make([]string, len(decls))
	for i, d := range decls {
		got[i] = d.Function.Name
	}
	want := []string{"alpha", "mid", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted names %v, got %v", want, got)
		}
	}
}

func TestDispatchHappyPath(t *testing.T) {
	registry := NewRegistry(nil)
	executor := &staticExecutor{result: Result{Content: "ok"}}
	registry.MustRegister(executor, testDeclaration())

	result := registry.Dispatch(context.Background(), call("sample", `{"name":"run","size":3}`))
	if result.Content != "ok" {
		t.Fatalf("expected executor result, got %q", result.Content)
	}
	if executor.args["name"] != "run" {
		t.Fatalf("expected parsed args, got %v", executor.args)
	}
}

func TestDispatchErrors(t *testing.T) {
	registry := NewRegistry(nil)
	registry.MustRegister(&staticExecutor{result: Result{Content: "ok"}}, testDeclaration())

	tests := []struct {
		name string
		call llm.ToolCall
		want string
	}{
		{"unknown tool", call("missing", "{}"), "unknown tool"},
		{"malformed json", call("sample", "{broken"), "invalid arguments"},
		{"missing required", call("sample", `{"size":2}`), `missing required argument "name"`},
		{"unexpected argument", call("sample", `{"name":"x","extra":true}`), `unexpected argument "extra"`},
		{"wrong type", call("sample", `{"name":7}`), "must be a string"},
		{"enum violation", call("sample", `{"name":"x","mode":"high"}`), "must be one of"},
		{"bad array item", call("sample", `{"name":"x","keys":[1]}`), "must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.Dispatch(context.Background(), tt.call)
			if !strings.HasPrefix(result.Content, "Error: ") {
				t.Fatalf("expected error result, got %q", result.Content)
			}
			if !strings.Contains(result.Content, tt.want) {
				t.Fatalf("expected %q in %q", tt.want, result.Content)
			}
		})
	}
}

func TestActivityIDArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    int64
		wantErr bool
	}{
		{"string id", map[string]any{"activity_id": "12345"}, 12345, false},
		{"numeric id", map[string]any{"activity_id": float64(678)}, 678, false},
		{"missing", map[string]any{}, 0, true},
		{"garbage", map[string]any{"activity_id": "abc"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActivityIDArg(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
