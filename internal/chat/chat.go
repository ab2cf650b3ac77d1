// Package chat implements the conversational agent: it assembles the
// role prompt, session history, and the user's input into a model
// request, lets the model call tools, and persists the completed
// exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/cslab/cschat/internal/conversation"
)

const (
	defaultMaxTurns           = 5
	defaultMaxHistoryMessages = 100

	// fallbackResponseMessage is returned when the model produces an
	// empty response.
	fallbackResponseMessage = "I couldn't come up with a response. Please try rephrasing your question."
)

// DefaultSystemPrompt is the role the assistant plays when the user has
// not configured one.
const DefaultSystemPrompt = "You are a patient and encouraging study assistant. " +
	"Explain concepts clearly, prefer concrete examples over abstract definitions, " +
	"and check the user's understanding with a short follow-up question when it helps. " +
	"Use your tools when a question needs current weather, the current date or time, " +
	"or material from the local knowledge base. Admit openly when you do not know something."

// ErrEmptyInput indicates a turn with nothing to send.
var ErrEmptyInput = errors.New("input cannot be empty")

// StreamCallback is called for each chunk of a streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Response is the completed result of one conversational turn.
type Response struct {
	Text         string
	ToolRequests []*ai.ToolRequest

	// Usage carries the provider's token accounting, nil when the
	// provider reports none.
	Usage *ai.GenerationUsage
}

// Config contains all parameters for the chat Agent.
type Config struct {
	Genkit *genkit.Genkit
	Store  *conversation.Store
	Logger *slog.Logger
	Tools  []ai.Tool // pre-registered via tools.Register

	// ModelName is the provider-qualified model name
	// (e.g. "googleai/gemini-2.5-flash").
	ModelName string

	// SystemPrompt overrides DefaultSystemPrompt when set.
	SystemPrompt string

	// MaxTurns caps agentic tool-calling loops per request.
	MaxTurns int

	// MaxHistoryMessages caps how much session history is replayed to
	// the model.
	MaxHistoryMessages int

	// RateLimiter throttles provider requests (nil = use default).
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Store == nil {
		return errors.New("conversation store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent is the conversational core. It is stateless between turns; all
// conversation state lives in the store.
//
// Configuration is captured immutably at construction, so an Agent is
// safe for concurrent use.
type Agent struct {
	g      *genkit.Genkit
	store  *conversation.Store
	logger *slog.Logger

	modelName    string
	systemPrompt string
	maxTurns     int
	maxHistory   int

	limiter *rate.Limiter

	tools     []ai.Tool
	toolRefs  []ai.ToolRef
	toolNames string
}

// New creates an Agent from the given configuration.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	maxHistory := cfg.MaxHistoryMessages
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistoryMessages
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	// Default: 10 requests/sec sustained, burst of 30.
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		g:            cfg.Genkit,
		store:        cfg.Store,
		logger:       cfg.Logger,
		modelName:    cfg.ModelName,
		systemPrompt: systemPrompt,
		maxTurns:     maxTurns,
		maxHistory:   maxHistory,
		limiter:      limiter,
		tools:        cfg.Tools,
		toolRefs:     toolRefs,
		toolNames:    strings.Join(names, ", "),
	}

	a.logger.Info("chat agent initialized",
		"model", a.modelName,
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
	)
	return a, nil
}

// SendTurn runs one conversational turn: it replays the session's
// history with the role prompt, sends the user's input, lets the model
// use tools, and persists the exchange.
//
// If callback is non-nil the response streams through it chunk by
// chunk; the complete response is returned either way.
//
// Nothing is persisted when generation fails, so a session never holds
// a user message whose reply was never produced alongside it.
func (a *Agent) SendTurn(ctx context.Context, sessionID, input string, callback StreamCallback) (*Response, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, conversation.ErrEmptySessionID
	}

	history, err := a.store.RecentMessages(ctx, sessionID, a.maxHistory)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	messages := make([]*ai.Message, 0, len(history)+2)
	messages = append(messages, ai.NewSystemTextMessage(a.systemPrompt))
	messages = append(messages, toModelMessages(history)...)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	a.logger.Debug("sending turn",
		"session_id", sessionID,
		"history", len(history),
		"tools", a.toolNames,
		"streaming", callback != nil,
	)

	opts := []ai.GenerateOption{
		ai.WithModelName(a.modelName),
		ai.WithMessages(messages...),
		ai.WithMaxTurns(a.maxTurns),
	}
	if len(a.toolRefs) > 0 {
		opts = append(opts, ai.WithTools(a.toolRefs...))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(ai.ModelStreamCallback(callback)))
	}

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	responseText := resp.Text()
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response", "session_id", sessionID)
		responseText = fallbackResponseMessage
	}

	// Persist user then assistant. The assistant message is only
	// written once the user message landed, keeping the pairing
	// invariant even when the store degrades mid-turn.
	if _, err := a.store.AppendMessage(ctx, sessionID, conversation.RoleUser, input); err != nil {
		a.logger.Warn("persisting user message", "session_id", sessionID, "error", err)
	} else if _, err := a.store.AppendMessage(ctx, sessionID, conversation.RoleAssistant, responseText); err != nil {
		a.logger.Warn("persisting assistant message", "session_id", sessionID, "error", err)
	}

	return &Response{
		Text:         responseText,
		ToolRequests: resp.ToolRequests(),
		Usage:        resp.Usage,
	}, nil
}

// toModelMessages converts stored history to genkit messages. Unknown
// roles are skipped rather than failing the whole turn.
func toModelMessages(history []*conversation.Message) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleUser:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(msg.Content)))
		case conversation.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(msg.Content)))
		case conversation.RoleSystem:
			messages = append(messages, ai.NewSystemTextMessage(msg.Content))
		}
	}
	return messages
}
