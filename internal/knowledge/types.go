package knowledge

import "time"

// Metadata keys and values used by the shipped document sets.
const (
	// MetaSourceType is the metadata key that categorizes a document.
	MetaSourceType = "source_type"

	// SourceTypeNote marks documents added by the user during study.
	SourceTypeNote = "note"

	// SourceTypeSeed marks the built-in study material indexed at startup.
	SourceTypeSeed = "seed"
)

// Document is a unit of searchable knowledge. Content is embedded once
// on Add; Metadata is exact-match filterable.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Result is a single search hit. Similarity is cosine similarity in
// [0, 1], higher is closer.
type Result struct {
	Document   Document
	Similarity float32
}

// SearchOption configures a Search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK   int
	filter map[string]string
}

// WithTopK caps the number of results. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithFilter restricts results to documents whose metadata contains the
// given key/value pair. Repeated calls AND together.
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: 5}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
