// Package tools provides the tool capability layer: the interfaces
// optional tools implement, their genkit registration, and the shipped
// toolsets (weather, system time).
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Tool describes an individual capability the model may invoke.
// Tools carry metadata; execution lives in ExecutableTool.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description tells the LLM when to call the tool.
	Description() string

	// IsLongRunning indicates the tool blocks on external services.
	IsLongRunning() bool
}

// Toolset groups related tools. Tools() is a pure query with no side
// effects and may be called multiple times.
type Toolset interface {
	Name() string
	Tools() ([]Tool, error)
}

// ExecutableTool is a complete Tool implementation: metadata plus a
// type-erased execution function.
type ExecutableTool struct {
	name        string
	description string
	longRunning bool

	handler func(*ai.ToolContext, any) (any, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string { return t.description }

// IsLongRunning reports whether the tool blocks on external services.
func (t *ExecutableTool) IsLongRunning() bool { return t.longRunning }

// Execute runs the tool with the given context and input.
func (t *ExecutableTool) Execute(ctx *ai.ToolContext, input any) (any, error) {
	return t.handler(ctx, input)
}

// NewTool creates a tool with type-safe input and output handling.
// Type erasure happens internally so heterogeneous tools can share one
// storage type; genkit passes map[string]any, which is converted to In
// via a JSON round trip when direct assertion fails.
func NewTool[In, Out any](
	name string,
	description string,
	longRunning bool,
	handler func(*ai.ToolContext, In) (Out, error),
) *ExecutableTool {
	var zeroIn In

	erasedHandler := func(ctx *ai.ToolContext, input any) (any, error) {
		if typedInput, ok := input.(In); ok {
			return handler(ctx, typedInput)
		}

		jsonBytes, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("marshaling input: %w", err)
		}

		var typedInput In
		if err := json.Unmarshal(jsonBytes, &typedInput); err != nil {
			return nil, fmt.Errorf("invalid input type: expected %T, got %T: %w", zeroIn, input, err)
		}
		return handler(ctx, typedInput)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		longRunning: longRunning,
		handler:     erasedHandler,
	}
}
