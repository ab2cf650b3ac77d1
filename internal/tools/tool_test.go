package tools

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
)

type echoInput struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func newEchoTool() *ExecutableTool {
	return NewTool("echo", "repeats its input", false,
		func(_ *ai.ToolContext, in echoInput) (*Result, error) {
			return &Result{
				Status: StatusSuccess,
				Data:   map[string]any{"text": in.Text, "count": float64(in.Count)},
			}, nil
		})
}

func TestNewToolMetadata(t *testing.T) {
	tool := newEchoTool()
	if tool.Name() != "echo" {
		t.Errorf("Name() = %q, want echo", tool.Name())
	}
	if tool.Description() != "repeats its input" {
		t.Errorf("Description() = %q", tool.Description())
	}
	if tool.IsLongRunning() {
		t.Error("IsLongRunning() = true, want false")
	}
}

func TestExecuteTypedInput(t *testing.T) {
	tool := newEchoTool()

	out, err := tool.Execute(toolContext(t), echoInput{Text: "hi", Count: 2})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	result, ok := out.(*Result)
	if !ok {
		t.Fatalf("Execute() returned %T, want *Result", out)
	}
	if result.Data["text"] != "hi" {
		t.Errorf("Data[text] = %v, want hi", result.Data["text"])
	}
}

func TestExecuteMapInput(t *testing.T) {
	tool := newEchoTool()

	// genkit delivers tool arguments as a decoded JSON map.
	out, err := tool.Execute(toolContext(t), map[string]any{"text": "hello", "count": 3})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	result := out.(*Result)
	if result.Data["text"] != "hello" {
		t.Errorf("Data[text] = %v, want hello", result.Data["text"])
	}
	if result.Data["count"] != float64(3) {
		t.Errorf("Data[count] = %v, want 3", result.Data["count"])
	}
}

func TestExecuteInvalidInput(t *testing.T) {
	tool := newEchoTool()

	if _, err := tool.Execute(toolContext(t), "not an object"); err == nil {
		t.Fatal("Execute() with mismatched input should fail")
	}
}
