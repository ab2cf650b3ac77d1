// Package app wires the application together: configuration, logging,
// the database, the AI provider, toolsets, and the chat agent.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/cslab/cschat/internal/chat"
	"github.com/cslab/cschat/internal/config"
	"github.com/cslab/cschat/internal/conversation"
	"github.com/cslab/cschat/internal/database"
	"github.com/cslab/cschat/internal/knowledge"
)

// App is the application container. Every command builds one through
// Setup and releases it with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	DB            *database.DB
	Conversations *conversation.Store
	Knowledge     *knowledge.Store
	Agent         *chat.Agent
}

// Close releases held resources. Safe to call on a partially
// constructed App.
func (a *App) Close() error {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return err
		}
		a.DB = nil
	}
	return nil
}
