// Package knowledge provides document indexing and semantic search.
//
// Documents live in two places that are kept in lockstep: durable rows
// in the documents table (content, metadata, and the embedding as JSON)
// and an in-memory chromem-go collection that serves cosine similarity
// queries. The table is the source of truth; the collection is rebuilt
// from it on startup, so wiping the database file also wipes the index.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// searchTimeout bounds embedding generation plus the similarity query.
const searchTimeout = 10 * time.Second

const collectionName = "documents"

// Store manages knowledge documents with vector search.
// It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	collection *chromem.Collection
	embed      chromem.EmbeddingFunc
	logger     *slog.Logger
}

// New creates a Store over an already-migrated database and loads every
// persisted document into the vector index. Stored embeddings are
// reused, so startup does not call the embedder.
func New(ctx context.Context, db *sql.DB, embedder ai.Embedder, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	embed := NewEmbeddingFunc(embedder)

	collection, err := chromem.NewDB().CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating vector collection: %w", err)
	}

	s := &Store{
		db:         db,
		collection: collection,
		embed:      embed,
		logger:     logger,
	}

	loaded, err := s.loadPersisted(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading persisted documents: %w", err)
	}
	if loaded > 0 {
		logger.Debug("vector index rebuilt", "documents", loaded)
	}

	return s, nil
}

// loadPersisted rebuilds the in-memory index from the documents table.
func (s *Store) loadPersisted(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, embedding, metadata FROM documents`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	loaded := 0
	for rows.Next() {
		var id, content, embeddingJSON, metadataJSON string
		if err := rows.Scan(&id, &content, &embeddingJSON, &metadataJSON); err != nil {
			return loaded, err
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			s.logger.Warn("skipping document with corrupt embedding", "id", id, "error", err)
			continue
		}

		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			s.logger.Warn("resetting corrupt document metadata", "id", id, "error", err)
			metadata = make(map[string]string)
		}

		if err := s.collection.AddDocument(ctx, chromem.Document{
			ID:        id,
			Content:   content,
			Embedding: embedding,
			Metadata:  metadata,
		}); err != nil {
			return loaded, fmt.Errorf("indexing document %q: %w", id, err)
		}
		loaded++
	}
	return loaded, rows.Err()
}

// Add embeds the document's content and stores it. A missing ID gets a
// generated one, returned via the Document value. Adding an existing ID
// replaces the stored document.
func (s *Store) Add(ctx context.Context, doc Document) (Document, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return Document{}, ErrEmptyContent
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return Document{}, fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return Document{}, fmt.Errorf("encoding embedding: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return Document{}, fmt.Errorf("encoding metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata`,
		doc.ID, doc.Content, string(embeddingJSON), string(metadataJSON), doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("storing document %q: %w", doc.ID, err)
	}

	// AddDocument replaces an existing entry with the same ID.
	if err := s.collection.AddDocument(ctx, chromem.Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Embedding: embedding,
		Metadata:  doc.Metadata,
	}); err != nil {
		return Document{}, fmt.Errorf("indexing document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return doc, nil
}

// Search embeds the query and returns the closest documents, ranked by
// cosine similarity, highest first.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	cfg := buildSearchConfig(opts)
	if cfg.topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", cfg.topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	// chromem rejects nResults above the collection size.
	n := cfg.topK
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return []Result{}, nil
	}

	hits, err := s.collection.Query(queryCtx, query, n, cfg.filter, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Document: Document{
				ID:        hit.ID,
				Content:   hit.Content,
				Metadata:  hit.Metadata,
				CreatedAt: s.createdAt(queryCtx, hit.ID),
			},
			Similarity: hit.Similarity,
		})
	}
	return results, nil
}

// createdAt reads the persisted timestamp for a search hit. The index
// does not carry timestamps, only the table does.
func (s *Store) createdAt(ctx context.Context, id string) time.Time {
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM documents WHERE id = ?`, id).Scan(&createdAt)
	if err != nil {
		s.logger.Warn("missing created_at for indexed document", "id", id, "error", err)
		return time.Time{}
	}
	return createdAt
}

// Count returns how many documents match the filter, or the total count
// when filter is empty.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	query := `SELECT COUNT(*) FROM documents`
	var args []any

	if len(filter) > 0 {
		var clauses []string
		for key, value := range filter {
			clauses = append(clauses, `json_extract(metadata, ?) = ?`)
			args = append(args, "$."+key, value)
		}
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// Delete removes a document from both the table and the index.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document %q: %w", id, err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}

	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("unindexing document %q: %w", id, err)
	}

	s.logger.Debug("deleted document", "id", id)
	return nil
}
