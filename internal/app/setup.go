package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/cslab/cschat/internal/chat"
	"github.com/cslab/cschat/internal/config"
	"github.com/cslab/cschat/internal/conversation"
	"github.com/cslab/cschat/internal/database"
	"github.com/cslab/cschat/internal/knowledge"
	"github.com/cslab/cschat/internal/log"
	"github.com/cslab/cschat/internal/tools"
)

// Setup creates and initializes the application. On failure everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Logger: provideLogger(cfg),
	}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				a.Logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	db, err := provideDatabase(cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Conversations = conversation.New(db.DB, a.Logger)

	a.Genkit = provideGenkit(ctx, cfg)
	a.Embedder = googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	a.Knowledge, err = knowledge.New(ctx, db.DB, a.Embedder, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("initializing knowledge store: %w", err)
	}
	seedKnowledge(ctx, a.Knowledge, a.Logger)

	registered, err := provideTools(a)
	if err != nil {
		return nil, err
	}

	a.Agent, err = chat.New(chat.Config{
		Genkit:             a.Genkit,
		Store:              a.Conversations,
		Logger:             a.Logger,
		Tools:              registered,
		ModelName:          cfg.FullModelName(),
		MaxTurns:           cfg.MaxTurns,
		MaxHistoryMessages: cfg.MaxHistoryMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}

	return a, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

func provideDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

func provideGenkit(ctx context.Context, cfg *config.Config) *genkit.Genkit {
	return genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.GeminiAPIKey}),
	)
}

// seedKnowledge installs the built-in study material once. Failures are
// logged, never fatal: chat works without semantic search.
func seedKnowledge(ctx context.Context, store *knowledge.Store, logger *slog.Logger) {
	count, err := store.Count(ctx, map[string]string{
		knowledge.MetaSourceType: knowledge.SourceTypeSeed,
	})
	if err != nil {
		logger.Warn("checking seed documents", "error", err)
		return
	}
	if count > 0 {
		return
	}

	indexed, err := knowledge.NewSeedIndexer(store, logger).IndexAll(ctx)
	if err != nil {
		logger.Warn("indexing seed documents", "error", err)
		return
	}
	logger.Debug("seeded knowledge base", "documents", indexed)
}

func provideTools(a *App) ([]ai.Tool, error) {
	toolsets := []tools.Toolset{
		tools.NewSystemToolset(a.Logger),
		tools.NewWeatherToolset(a.Config.WeatherAPIKey, a.Logger),
		knowledge.NewToolset(a.Knowledge, a.Logger),
	}

	registered, err := tools.Register(a.Genkit, a.Logger, toolsets...)
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return registered, nil
}
