package knowledge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/cslab/cschat/internal/tools"
)

// ToolsetName is the toolset identifier constant.
const ToolsetName = "knowledge"

const (
	defaultSearchTopK = 5
	maxSearchTopK     = 20
)

// SearchKnowledgeInput defines input for the searchKnowledge tool.
type SearchKnowledgeInput struct {
	Query string `json:"query" jsonschema_description:"What to search the knowledge base for"`
	TopK  int    `json:"topK,omitempty" jsonschema_description:"Maximum number of results, default 5"`
}

// Toolset exposes the knowledge store to the model as a search tool.
type Toolset struct {
	store  *Store
	logger *slog.Logger
}

// NewToolset creates a knowledge Toolset over the given store.
func NewToolset(store *Store, logger *slog.Logger) *Toolset {
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolset{store: store, logger: logger}
}

// Name returns the toolset identifier.
func (t *Toolset) Name() string {
	return ToolsetName
}

// Tools returns all knowledge tools.
func (t *Toolset) Tools() ([]tools.Tool, error) {
	return []tools.Tool{
		tools.NewTool(
			"searchKnowledge",
			"Search the local knowledge base of study material and saved notes. "+
				"Use this when the user asks about their notes, saved material, or this assistant's capabilities.",
			false,
			t.SearchKnowledge,
		),
	}, nil
}

// SearchKnowledge performs a semantic search and returns ranked matches.
func (t *Toolset) SearchKnowledge(ctx *ai.ToolContext, input SearchKnowledgeInput) (tools.Result, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return tools.Errorf(tools.ErrCodeValidation, "query is required"), nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	if topK > maxSearchTopK {
		topK = maxSearchTopK
	}

	results, err := t.store.Search(ctx.Context, query, WithTopK(topK))
	if err != nil {
		t.logger.Warn("knowledge search failed", "query", query, "error", err)
		return tools.Errorf(tools.ErrCodeIO, fmt.Sprintf("search failed: %v", err)), nil
	}

	matches := make([]map[string]any, 0, len(results))
	for _, r := range results {
		matches = append(matches, map[string]any{
			"id":         r.Document.ID,
			"content":    r.Document.Content,
			"similarity": r.Similarity,
			"metadata":   r.Document.Metadata,
		})
	}

	return tools.Result{
		Status:  tools.StatusSuccess,
		Message: fmt.Sprintf("found %d matching documents", len(matches)),
		Data:    map[string]any{"matches": matches},
	}, nil
}
