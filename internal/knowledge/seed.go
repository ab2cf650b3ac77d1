package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SeedIndexer installs the built-in study material so semantic search
// has something to find before the user adds notes of their own.
//
// Seed documents use fixed IDs and upsert semantics, so reindexing at
// every startup is cheap and idempotent.
type SeedIndexer struct {
	store  *Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSeedIndexer creates a SeedIndexer.
func NewSeedIndexer(store *Store, logger *slog.Logger) *SeedIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedIndexer{store: store, logger: logger}
}

// IndexAll indexes every seed document, continuing past individual
// failures. It returns the number indexed, and an error only when
// nothing could be indexed at all.
func (s *SeedIndexer) IndexAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := seedDocuments()

	indexed := 0
	for _, doc := range docs {
		if _, err := s.store.Add(ctx, doc); err != nil {
			s.logger.Error("failed to index seed document", "doc_id", doc.ID, "error", err)
			continue
		}
		indexed++
	}

	s.logger.Debug("seed documents indexed",
		"total", len(docs), "success", indexed, "failed", len(docs)-indexed)

	if indexed == 0 {
		return 0, fmt.Errorf("failed to index any seed documents")
	}
	return indexed, nil
}

// ClearAll deletes every seed document. Used by tests and manual
// reindexing.
func (s *SeedIndexer) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range seedDocuments() {
		if err := s.store.Delete(ctx, doc.ID); err != nil {
			if err == ErrDocumentNotFound {
				continue
			}
			return fmt.Errorf("deleting seed document %q: %w", doc.ID, err)
		}
	}
	return nil
}

func seedDocuments() []Document {
	meta := func(category string) map[string]string {
		return map[string]string{
			MetaSourceType: SourceTypeSeed,
			"category":     category,
		}
	}

	return []Document{
		{
			ID: "seed:assistant-capabilities",
			Content: "The assistant keeps every conversation in named sessions that survive " +
				"restarts. It can call tools during a reply: looking up current weather for a " +
				"city, reading the local date and time, and searching this knowledge base. " +
				"Ask it to summarize earlier messages in the session when picking up where you left off.",
			Metadata: meta("capabilities"),
		},
		{
			ID: "seed:study-recall",
			Content: "Active recall beats rereading. After studying a topic, close the material " +
				"and write down everything remembered, then check what was missed. Spacing " +
				"reviews over growing intervals (one day, three days, a week) moves facts into " +
				"long-term memory far better than massed repetition.",
			Metadata: meta("study-methods"),
		},
		{
			ID: "seed:study-questions",
			Content: "Asking better questions produces better answers. State what you already " +
				"know, what you tried, and where you got stuck. Ask for an explanation at a " +
				"chosen level (a beginner analogy or a precise technical one) and request a " +
				"worked example before attempting a variation yourself.",
			Metadata: meta("study-methods"),
		},
		{
			ID: "seed:session-habits",
			Content: "Keep one session per subject or project so its history stays coherent. " +
				"Rename sessions to something meaningful, and start a fresh session when " +
				"switching topics: a focused history gives the model better context than one " +
				"long mixed thread.",
			Metadata: meta("capabilities"),
		},
	}
}
