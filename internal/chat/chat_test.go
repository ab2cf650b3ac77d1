package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/cslab/cschat/internal/conversation"
	"github.com/cslab/cschat/internal/database"
	"github.com/cslab/cschat/internal/log"
	"github.com/cslab/cschat/internal/testutil"
)

func newTestAgent(t *testing.T, mock *testutil.MockLLM) (*Agent, *conversation.Store) {
	t.Helper()
	ctx := context.Background()

	g := genkit.Init(ctx)
	mock.RegisterModel(g)

	db, err := database.Open(t.TempDir() + "/chat.db")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	store := conversation.New(db.DB, log.NewNop())
	agent, err := New(Config{
		Genkit:    g,
		Store:     store,
		Logger:    log.NewNop(),
		ModelName: "mock/test-model",
	})
	if err != nil {
		t.Fatalf("creating agent: %v", err)
	}
	return agent, store
}

func TestSendTurnPersistsExchange(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddResponse("hello", "Hi there")
	agent, store := newTestAgent(t, mock)
	ctx := context.Background()

	sessionID := conversation.NewSessionID()
	resp, err := agent.SendTurn(ctx, sessionID, "Hello", nil)
	if err != nil {
		t.Fatalf("SendTurn() failed: %v", err)
	}
	if resp.Text != "Hi there" {
		t.Errorf("Text = %q, want %q", resp.Text, "Hi there")
	}

	msgs, err := store.Messages(ctx, sessionID, 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("first message = %s %q, want user Hello", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != conversation.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("second message = %s %q, want assistant Hi there", msgs[1].Role, msgs[1].Content)
	}
}

func TestSendTurnEmptyInput(t *testing.T) {
	agent, _ := newTestAgent(t, testutil.NewMockLLM("fallback"))

	if _, err := agent.SendTurn(context.Background(), conversation.NewSessionID(), "   ", nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("SendTurn(blank) error = %v, want ErrEmptyInput", err)
	}
}

func TestSendTurnEmptySessionID(t *testing.T) {
	agent, _ := newTestAgent(t, testutil.NewMockLLM("fallback"))

	if _, err := agent.SendTurn(context.Background(), "", "Hello", nil); !errors.Is(err, conversation.ErrEmptySessionID) {
		t.Errorf("SendTurn with no session error = %v, want ErrEmptySessionID", err)
	}
}

func TestSendTurnProviderFailureLeavesNoMessages(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.SetError(errors.New("quota exceeded"))
	agent, store := newTestAgent(t, mock)
	ctx := context.Background()

	sessionID := conversation.NewSessionID()
	if _, err := agent.SendTurn(ctx, sessionID, "Hello", nil); err == nil {
		t.Fatal("SendTurn() should fail when the provider fails")
	}

	msgs, err := store.Messages(ctx, sessionID, 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("failed turn persisted %d messages, want 0", len(msgs))
	}
}

func TestSendTurnEmptyResponseFallback(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddResponse("strange question", "")
	agent, store := newTestAgent(t, mock)
	ctx := context.Background()

	sessionID := conversation.NewSessionID()
	resp, err := agent.SendTurn(ctx, sessionID, "strange question", nil)
	if err != nil {
		t.Fatalf("SendTurn() failed: %v", err)
	}
	if resp.Text != fallbackResponseMessage {
		t.Errorf("Text = %q, want fallback message", resp.Text)
	}

	msgs, err := store.Messages(ctx, sessionID, 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != fallbackResponseMessage {
		t.Errorf("persisted fallback exchange wrong: %+v", msgs)
	}
}

func TestSendTurnReplaysHistory(t *testing.T) {
	mock := testutil.NewMockLLM("ok")
	agent, _ := newTestAgent(t, mock)
	ctx := context.Background()

	sessionID := conversation.NewSessionID()
	if _, err := agent.SendTurn(ctx, sessionID, "first question", nil); err != nil {
		t.Fatalf("first SendTurn() failed: %v", err)
	}
	if _, err := agent.SendTurn(ctx, sessionID, "second question", nil); err != nil {
		t.Fatalf("second SendTurn() failed: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("model saw %d calls, want 2", len(calls))
	}
	// Second request carries the first exchange: system + 2 history + input.
	if calls[1].MessageCount != calls[0].MessageCount+2 {
		t.Errorf("second call had %d messages, want %d",
			calls[1].MessageCount, calls[0].MessageCount+2)
	}
}

func TestSendTurnStreaming(t *testing.T) {
	mock := testutil.NewMockLLM("streamed reply")
	agent, _ := newTestAgent(t, mock)
	ctx := context.Background()

	var chunks []string
	callback := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		chunks = append(chunks, chunk.Text())
		return nil
	}

	resp, err := agent.SendTurn(ctx, conversation.NewSessionID(), "anything", callback)
	if err != nil {
		t.Fatalf("SendTurn() failed: %v", err)
	}
	if got := strings.Join(chunks, ""); got != resp.Text {
		t.Errorf("streamed %q, final %q", got, resp.Text)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing genkit", func(c *Config) { c.Genkit = nil }},
		{"missing store", func(c *Config) { c.Store = nil }},
		{"missing logger", func(c *Config) { c.Logger = nil }},
		{"missing model", func(c *Config) { c.ModelName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := genkit.Init(context.Background())
			cfg := Config{
				Genkit:    g,
				Store:     &conversation.Store{},
				Logger:    log.NewNop(),
				ModelName: "mock/test-model",
			}
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() should reject invalid config")
			}
		})
	}
}

func TestGenerateTitle(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddResponse("write a short title", `"Go Study Help"`)
	agent, _ := newTestAgent(t, mock)

	title := agent.GenerateTitle(context.Background(), "Can you help me study Go?")
	if title != "Go Study Help" {
		t.Errorf("GenerateTitle() = %q, want Go Study Help", title)
	}
}

func TestGenerateTitleProviderFailure(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.SetError(errors.New("unreachable"))
	agent, _ := newTestAgent(t, mock)

	title := agent.GenerateTitle(context.Background(), "Explain goroutines to me")
	if title != "Explain goroutines to me" {
		t.Errorf("GenerateTitle() fallback = %q, want the message itself", title)
	}
}

func TestFallbackTitleTruncates(t *testing.T) {
	long := strings.Repeat("goroutines and channels ", 10)
	title := fallbackTitle(long)
	if len([]rune(title)) != fallbackTitleLength {
		t.Errorf("fallback title length = %d, want %d", len([]rune(title)), fallbackTitleLength)
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("fallback title %q should end with ellipsis", title)
	}
}

func TestGenerateTitleEmptyMessage(t *testing.T) {
	agent, _ := newTestAgent(t, testutil.NewMockLLM("fallback"))

	if title := agent.GenerateTitle(context.Background(), "  "); title != "" {
		t.Errorf("GenerateTitle(blank) = %q, want empty", title)
	}
}
