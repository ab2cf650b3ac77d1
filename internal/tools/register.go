package tools

import (
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Register defines every tool from the given toolsets in genkit and
// returns the handles the chat agent passes to the provider.
func Register(g *genkit.Genkit, logger *slog.Logger, toolsets ...Toolset) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var registered []ai.Tool
	for _, ts := range toolsets {
		toolList, err := ts.Tools()
		if err != nil {
			return nil, fmt.Errorf("listing tools for toolset %q: %w", ts.Name(), err)
		}

		for _, t := range toolList {
			et, ok := t.(*ExecutableTool)
			if !ok {
				return nil, fmt.Errorf("toolset %q: tool %q is not executable", ts.Name(), t.Name())
			}
			registered = append(registered, genkit.DefineTool(g, et.Name(), et.Description(), et.Execute))
			logger.Debug("tool registered", "toolset", ts.Name(), "tool", et.Name())
		}
	}

	logger.Info("tools registered", "count", len(registered))
	return registered, nil
}
