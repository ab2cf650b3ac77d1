package knowledge

import (
	"context"
	"testing"
)

func TestSeedIndexerIndexAll(t *testing.T) {
	store, _ := newTestStore(t)
	indexer := NewSeedIndexer(store, nil)
	ctx := context.Background()

	indexed, err := indexer.IndexAll(ctx)
	if err != nil {
		t.Fatalf("IndexAll() failed: %v", err)
	}
	if indexed != len(seedDocuments()) {
		t.Errorf("indexed %d documents, want %d", indexed, len(seedDocuments()))
	}

	// Reindexing upserts, it must not duplicate.
	if _, err := indexer.IndexAll(ctx); err != nil {
		t.Fatalf("second IndexAll() failed: %v", err)
	}
	count, err := store.Count(ctx, map[string]string{MetaSourceType: SourceTypeSeed})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != len(seedDocuments()) {
		t.Errorf("seed count after reindex = %d, want %d", count, len(seedDocuments()))
	}
}

func TestSeedIndexerClearAll(t *testing.T) {
	store, _ := newTestStore(t)
	indexer := NewSeedIndexer(store, nil)
	ctx := context.Background()

	if _, err := indexer.IndexAll(ctx); err != nil {
		t.Fatalf("IndexAll() failed: %v", err)
	}
	if err := indexer.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}

	count, err := store.Count(ctx, map[string]string{MetaSourceType: SourceTypeSeed})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("seed count after clear = %d, want 0", count)
	}

	// Clearing an already-empty store is a no-op.
	if err := indexer.ClearAll(ctx); err != nil {
		t.Errorf("ClearAll() on empty store failed: %v", err)
	}
}
