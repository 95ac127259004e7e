// ABOUTME: Public operations of the conversation engine
// ABOUTME: Thread lifecycle, message submission, history views, and document upload
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/akshith/chatkit/internal/log"
	"github.com/akshith/chatkit/internal/models"
	"github.com/akshith/chatkit/internal/retrieval"
	"github.com/akshith/chatkit/internal/tools"
)

// StreamHandler receives content fragments of a streamed answer in
// emission order.
type StreamHandler = func(fragment string) error

// Model is the opaque language-model capability: given the turn history
// and tool declarations, produce the next turn.
type Model interface {
	Next(ctx context.Context, turns []models.Turn, specs []tools.Spec) (*models.Turn, error)
	NextStreaming(ctx context.Context, turns []models.Turn, specs []tools.Spec, fn StreamHandler) (*models.Turn, error)
}

// Store is the durable conversation state the engine appends to.
type Store interface {
	Append(threadKey string, turn *models.Turn) error
	Latest(threadKey string) ([]models.Turn, error)
	ListThreads() ([]string, error)
	Threads() ([]models.ThreadInfo, error)
	DeleteThread(threadKey string) error
}

// DocumentIndexer manages per-thread retrieval indexes.
type DocumentIndexer interface {
	Ingest(ctx context.Context, threadKey string, data []byte, filename string) (retrieval.IngestStats, error)
	Evict(threadKey string)
}

// DefaultMaxToolRounds bounds model-to-tools round trips per user message.
// The bound is explicit rather than inherited from any framework default.
const DefaultMaxToolRounds = 25

// Options configures engine construction.
type Options struct {
	MaxToolRounds int
	Logger        log.Logger
}

// Engine is the multi-turn conversation orchestrator.
type Engine struct {
	store         Store
	model         Model
	registry      *tools.Registry
	indexer       DocumentIndexer
	logger        log.Logger
	maxToolRounds int

	mu          sync.Mutex
	threadLocks map[string]*sync.Mutex
}

// New creates an engine. The registry must be fully populated before the
// first message is submitted.
func New(store Store, model Model, registry *tools.Registry, indexer DocumentIndexer, opts Options) *Engine {
	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{
		store:         store,
		model:         model,
		registry:      registry,
		indexer:       indexer,
		logger:        logger,
		maxToolRounds: maxRounds,
		threadLocks:   make(map[string]*sync.Mutex),
	}
}

// CreateThread generates a fresh unique thread key. No store side effect
// until the first message.
func (e *Engine) CreateThread() string {
	return uuid.New().String()
}

// SubmitUserMessage appends the user turn and runs the orchestration loop
// to a final answer.
func (e *Engine) SubmitUserMessage(ctx context.Context, threadKey, text string) (*models.Turn, error) {
	return e.submit(ctx, threadKey, text, nil)
}

// StreamUserMessage is the streaming variant of SubmitUserMessage. Content
// fragments of the final answer are handed to fn as they arrive; the
// persisted final turn is returned when the loop completes.
func (e *Engine) StreamUserMessage(ctx context.Context, threadKey, text string, fn StreamHandler) (*models.Turn, error) {
	return e.submit(ctx, threadKey, text, fn)
}

func (e *Engine) submit(ctx context.Context, threadKey, text string, stream StreamHandler) (*models.Turn, error) {
	userTurn, err := models.NewUserTurn(text)
	if err != nil {
		return nil, ErrEmptyMessage
	}

	// Turn append order defines conversation semantics, so requests on
	// the same thread are serialized. Distinct threads run in parallel.
	unlock := e.lockThread(threadKey)
	defer unlock()

	turns, err := e.store.Latest(threadKey)
	if err != nil {
		return nil, err
	}

	if err := e.store.Append(threadKey, userTurn); err != nil {
		return nil, err
	}
	turns = append(turns, *userTurn)

	e.logger.Info("user message accepted", "thread", threadKey, "history_len", len(turns))
	return e.run(ctx, threadKey, turns, stream)
}

// ListThreads enumerates every thread key that has persisted turns.
func (e *Engine) ListThreads() ([]string, error) {
	return e.store.ListThreads()
}

// Threads returns display metadata for all threads, most recent first.
func (e *Engine) Threads() ([]models.ThreadInfo, error) {
	return e.store.Threads()
}

// GetHistory returns the external view of a thread: user turns and final
// assistant answers, in order. Tool requests and results are internal.
func (e *Engine) GetHistory(threadKey string) ([]models.Turn, error) {
	turns, err := e.store.Latest(threadKey)
	if err != nil {
		return nil, err
	}
	var visible []models.Turn
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			visible = append(visible, turn)
		case models.RoleAssistant:
			if len(turn.ToolCalls) == 0 && !turn.Content.IsEmpty() {
				visible = append(visible, turn)
			}
		}
	}
	return visible, nil
}

// GetFullHistory returns every persisted turn including tool traffic.
func (e *Engine) GetFullHistory(threadKey string) ([]models.Turn, error) {
	return e.store.Latest(threadKey)
}

// UploadDocument ingests a document for the thread, replacing any prior
// index. Failures return an error the caller can surface as data.
func (e *Engine) UploadDocument(ctx context.Context, threadKey string, data []byte, filename string) (retrieval.IngestStats, error) {
	return e.indexer.Ingest(ctx, threadKey, data, filename)
}

// DeleteThread removes a thread's turns and metadata and evicts its
// retrieval index. Deleting an unknown thread is a no-op.
func (e *Engine) DeleteThread(threadKey string) error {
	unlock := e.lockThread(threadKey)
	defer unlock()

	if e.indexer != nil {
		e.indexer.Evict(threadKey)
	}
	if err := e.store.DeleteThread(threadKey); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.threadLocks, threadKey)
	e.mu.Unlock()
	return nil
}

// lockThread acquires the per-thread mutex, creating it on first use.
func (e *Engine) lockThread(threadKey string) func() {
	e.mu.Lock()
	lock, ok := e.threadLocks[threadKey]
	if !ok {
		lock = &sync.Mutex{}
		e.threadLocks[threadKey] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
