package knowledge

import "errors"

// Sentinel errors for knowledge store operations.
var (
	// ErrEmptyContent indicates a document with no content to embed.
	ErrEmptyContent = errors.New("document content cannot be empty")

	// ErrEmptyQuery indicates a search with a blank query string.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrDocumentNotFound indicates the document ID does not exist.
	ErrDocumentNotFound = errors.New("document not found")
)
