package knowledge

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/cslab/cschat/internal/tools"
)

func TestSearchKnowledgeTool(t *testing.T) {
	store, _ := newTestStore(t)
	addTestDocs(t, store)
	ts := NewToolset(store, nil)

	result, err := ts.SearchKnowledge(&ai.ToolContext{Context: context.Background()},
		SearchKnowledgeInput{Query: "weather rain"})
	if err != nil {
		t.Fatalf("SearchKnowledge() returned Go error: %v", err)
	}
	if result.Status != tools.StatusSuccess {
		t.Fatalf("Status = %q, want success (error: %+v)", result.Status, result.Error)
	}

	matches, ok := result.Data["matches"].([]map[string]any)
	if !ok || len(matches) == 0 {
		t.Fatalf("Data[matches] = %v, want non-empty", result.Data["matches"])
	}
	if matches[0]["id"] != "doc-weather" {
		t.Errorf("top match = %v, want doc-weather", matches[0]["id"])
	}
}

func TestSearchKnowledgeToolEmptyQuery(t *testing.T) {
	store, _ := newTestStore(t)
	ts := NewToolset(store, nil)

	result, err := ts.SearchKnowledge(&ai.ToolContext{Context: context.Background()},
		SearchKnowledgeInput{Query: "  "})
	if err != nil {
		t.Fatalf("SearchKnowledge() returned Go error: %v", err)
	}
	if result.Status != tools.StatusError || result.Error.Code != tools.ErrCodeValidation {
		t.Errorf("result = %+v, want validation error", result)
	}
}

func TestKnowledgeToolsetTools(t *testing.T) {
	store, _ := newTestStore(t)
	ts := NewToolset(store, nil)

	toolList, err := ts.Tools()
	if err != nil {
		t.Fatalf("Tools() failed: %v", err)
	}
	if len(toolList) != 1 || toolList[0].Name() != "searchKnowledge" {
		t.Errorf("Tools() = %v, want one searchKnowledge tool", toolList)
	}
}
