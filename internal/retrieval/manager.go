// ABOUTME: Per-thread document index lifecycle and similarity search
// ABOUTME: At most one live index per thread; re-ingest swaps atomically, last-ingest-wins
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akshith/chatkit/internal/log"
)

// ErrNoIndex indicates the thread has no uploaded document to search.
var ErrNoIndex = errors.New("no document indexed")

// Embedder produces embedding vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestStats summarizes a completed ingest.
type IngestStats struct {
	Documents int `json:"document_count"`
	Chunks    int `json:"chunk_count"`
}

// Result is one retrieved passage with its source metadata.
type Result struct {
	Content string
	Source  string
	Score   float64
}

type chunkEntry struct {
	content string
	source  string
	vector  []float32
}

// index is an immutable snapshot built fully before installation, so
// concurrent queries see either the old index or the new one, never a
// partially-swapped state.
type index struct {
	filename string
	entries  []chunkEntry
}

// Manager owns the per-thread retrieval indexes.
type Manager struct {
	embedder  Embedder
	extractor Extractor
	chunker   Chunker
	logger    log.Logger

	mu      sync.RWMutex
	indexes map[string]*index
}

// NewManager creates a Manager with the plain-text extractor.
func NewManager(embedder Embedder, chunker Chunker, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		embedder:  embedder,
		extractor: PlainTextExtractor{},
		chunker:   chunker,
		logger:    logger,
		indexes:   make(map[string]*index),
	}
}

// SetExtractor replaces the text extraction boundary (richer formats,
// test doubles). Call before serving requests.
func (m *Manager) SetExtractor(extractor Extractor) {
	m.extractor = extractor
}

// Ingest extracts, chunks, and embeds a document, then installs it as the
// thread's current index, replacing any prior one.
func (m *Manager) Ingest(ctx context.Context, threadKey string, data []byte, filename string) (IngestStats, error) {
	text, err := m.extractor.Extract(data, filename)
	if err != nil {
		return IngestStats{}, err
	}

	chunks := m.chunker.Split(text)
	if len(chunks) == 0 {
		return IngestStats{}, fmt.Errorf("document %q produced no indexable text", filename)
	}

	vectors, err := m.embedder.Embed(ctx, chunks)
	if err != nil {
		return IngestStats{}, fmt.Errorf("embedding document: %w", err)
	}
	if len(vectors) != len(chunks) {
		return IngestStats{}, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]chunkEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = chunkEntry{
			content: chunk,
			source:  fmt.Sprintf("%s#chunk-%d", filename, i),
			vector:  vectors[i],
		}
	}
	fresh := &index{filename: filename, entries: entries}

	m.mu.Lock()
	m.indexes[threadKey] = fresh
	m.mu.Unlock()

	m.logger.Info("document indexed", "thread", threadKey, "file", filename, "chunks", len(chunks))
	return IngestStats{Documents: 1, Chunks: len(chunks)}, nil
}

// Query returns the k chunks most similar to text for the thread's
// current index.
func (m *Manager) Query(ctx context.Context, threadKey, text string, k int) ([]Result, error) {
	m.mu.RLock()
	idx := m.indexes[threadKey]
	m.mu.RUnlock()

	if idx == nil {
		return nil, ErrNoIndex
	}
	if k < 1 {
		k = 1
	}

	vectors, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedding query: no vector returned")
	}
	query := vectors[0]

	results := make([]Result, 0, len(idx.entries))
	for _, entry := range idx.entries {
		results = append(results, Result{
			Content: entry.content,
			Source:  entry.source,
			Score:   cosineSimilarity(query, entry.vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// HasIndex reports whether a thread currently has a live index.
func (m *Manager) HasIndex(threadKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexes[threadKey] != nil
}

// Evict discards a thread's index, if any.
func (m *Manager) Evict(threadKey string) {
	m.mu.Lock()
	delete(m.indexes, threadKey)
	m.mu.Unlock()
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
