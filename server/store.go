package server

import (
	"context"
	"sync"
	"time"

	"github.com/teilomillet/gochain/chain"
)

// Entry is the last result produced for a session.
type Entry struct {
	SessionID string            `json:"session_id"`
	Pipeline  string            `json:"pipeline"`
	Inputs    map[string]any    `json:"inputs"`
	RunID     string            `json:"run_id"`
	Outputs   map[string]string `json:"outputs"`
	CreatedAt time.Time         `json:"created_at"`
}

func newEntry(sessionID, pipeline string, inputs map[string]any, result *chain.Result) Entry {
	return Entry{
		SessionID: sessionID,
		Pipeline:  pipeline,
		Inputs:    inputs,
		RunID:     result.RunID,
		Outputs:   result.Outputs,
		CreatedAt: time.Now().UTC(),
	}
}

// ResultStore keeps one entry per session. Saving overwrites; the last
// writer wins.
type ResultStore interface {
	Save(ctx context.Context, entry Entry) error
	// Last returns nil, nil when the session has no entry.
	Last(ctx context.Context, sessionID string) (*Entry, error)
	Close() error
}

// MemoryStore is a process-local ResultStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Save(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SessionID] = entry
	return nil
}

func (s *MemoryStore) Last(_ context.Context, sessionID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Close() error { return nil }
