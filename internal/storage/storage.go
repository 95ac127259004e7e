// ABOUTME: Conversation state store facade over the SQLite turn log
// ABOUTME: Wraps every storage fault in PersistenceError for the orchestration layer
package storage

import (
	"fmt"

	"github.com/akshith/chatkit/internal/models"
	"github.com/akshith/chatkit/internal/storage/sqlite"
)

// PersistenceError indicates the durable medium rejected or lost a write.
// It is fatal to the current request: better to fail loudly than to
// desynchronize memory and durable state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is the durable conversation state store. Every append is committed
// before return; no turn is lost once Append succeeds.
type Store struct {
	db    *sqlite.DB
	turns *sqlite.TurnStore
}

// Open opens the store at the given database path, creating it if needed.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	return &Store{db: db, turns: sqlite.NewTurnStore(db)}, nil
}

// OpenInMemory opens an ephemeral store for testing.
func OpenInMemory() (*Store, error) {
	db, err := sqlite.OpenInMemory()
	if err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}
	return &Store{db: db, turns: sqlite.NewTurnStore(db)}, nil
}

// Append adds a turn to the end of the thread's log, durably.
func (s *Store) Append(threadKey string, turn *models.Turn) error {
	if err := s.turns.Append(threadKey, turn); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	return nil
}

// Latest returns the full turn history for a thread, empty if unknown.
func (s *Store) Latest(threadKey string) ([]models.Turn, error) {
	turns, err := s.turns.Latest(threadKey)
	if err != nil {
		return nil, &PersistenceError{Op: "latest", Err: err}
	}
	return turns, nil
}

// ListThreads enumerates every thread key that has ever had an append.
func (s *Store) ListThreads() ([]string, error) {
	keys, err := s.turns.ListThreads()
	if err != nil {
		return nil, &PersistenceError{Op: "list threads", Err: err}
	}
	return keys, nil
}

// Threads returns display metadata for all threads, most recent first.
func (s *Store) Threads() ([]models.ThreadInfo, error) {
	infos, err := s.turns.Threads()
	if err != nil {
		return nil, &PersistenceError{Op: "threads", Err: err}
	}
	return infos, nil
}

// DeleteThread removes a thread and all of its turns.
func (s *Store) DeleteThread(threadKey string) error {
	if err := s.turns.DeleteThread(threadKey); err != nil {
		return &PersistenceError{Op: "delete thread", Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
