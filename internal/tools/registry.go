package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/stravagpt/stravagpt/internal/llm"
)

type registryItem struct {
	executor    Executor
	declaration llm.Tool
}

// Registry stores tool name to executor and declaration (single owner per
// name). The tool set is closed once the session is built.
type Registry struct {
	items  map[string]registryItem
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		items:  map[string]registryItem{},
		logger: log.With(slog.String("component", "tools")),
	}
}

// Register adds a tool; returns an error if the name is empty or taken.
func (r *Registry) Register(executor Executor, declaration llm.Tool) error {
	if executor == nil {
		return errors.New("tool executor is required")
	}
	name := strings.TrimSpace(declaration.Function.Name)
	if name == "" {
		return errors.New("tool name is required")
	}
	if _, exists := r.items[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	declaration.Function.Name = name
	r.items[name] = registryItem{
		executor:    executor,
		declaration: declaration,
	}
	return nil
}

// MustRegister registers or panics; for wiring time only.
func (r *Registry) MustRegister(executor Executor, declaration llm.Tool) {
	if err := r.Register(executor, declaration); err != nil {
		panic(err)
	}
}

// Declarations returns all tool declarations sorted by name, for the
// completion request's tool schema.
func (r *Registry) Declarations() []llm.Tool {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	tools := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, r.items[name].declaration)
	}
	return tools
}

// Dispatch routes one tool-call request to its executor. Every failure mode
// (unknown name, malformed arguments, schema violation, executor error)
// produces an error-describing Result so no request goes unanswered.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) Result {
	name := strings.TrimSpace(call.Function.Name)
	item, ok := r.items[name]
	if !ok {
		r.logger.Warn("unknown tool requested", slog.String("tool", name))
		return ErrorResult("unknown tool: %s", name)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return ErrorResult("invalid arguments for %s: %v", name, err)
		}
	}
	if err := validateArgs(item.declaration.Function.Parameters, args); err != nil {
		return ErrorResult("invalid arguments for %s: %v", name, err)
	}

	result, err := item.executor.Execute(ctx, args)
	if err != nil {
		r.logger.Error("tool execution failed",
			slog.String("tool", name),
			slog.Any("error", err),
		)
		return ErrorResult("%s failed: %v", name, err)
	}
	return result
}

// validateArgs checks required keys, basic types, and enum membership
// against the declared JSON-schema parameters.
func validateArgs(schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if required, ok := schema["required"].([]string); ok {
		for _, key := range required {
			if _, present := args[key]; !present {
				return fmt.Errorf("missing required argument %q", key)
			}
		}
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for key, value := range args {
		rawProp, known := properties[key]
		if !known {
			return fmt.Errorf("unexpected argument %q", key)
		}
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		if err := validateValue(key, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(key string, prop map[string]any, value any) error {
	declared, _ := prop["type"].(string)
	switch declared {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %q must be a string", key)
		}
		return checkEnum(key, prop, s)
	case "integer", "number":
		if _, ok := value.(float64); !ok {
			if _, ok := value.(int); !ok {
				return fmt.Errorf("argument %q must be a number", key)
			}
		}
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("argument %q must be an array", key)
		}
		itemProp, _ := prop["items"].(map[string]any)
		if itemProp == nil {
			return nil
		}
		for _, item := range items {
			if err := validateValue(key, itemProp, item); err != nil {
				return err
			}
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", key)
		}
	}
	return nil
}

func checkEnum(key string, prop map[string]any, value string) error {
	allowed, ok := prop["enum"].([]string)
	if !ok || len(allowed) == 0 {
		return nil
	}
	for _, candidate := range allowed {
		if candidate == value {
			return nil
		}
	}
	return fmt.Errorf("argument %q must be one of %v", key, allowed)
}
