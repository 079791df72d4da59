package repositories

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory RecordStore used in tests and as a reference
// for the append-only contract.
type MemoryStore struct {
	mu      sync.RWMutex
	headers map[string][]string
	rows    map[string][][]string
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		headers: make(map[string][]string),
		rows:    make(map[string][][]string),
	}
}

func (s *MemoryStore) EnsureTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.headers[table]; !exists {
		s.headers[table] = append([]string(nil), header...)
	}
	return nil
}

func (s *MemoryStore) Append(_ context.Context, table string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, ok := s.headers[table]
	if !ok {
		return fmt.Errorf("append to %s: table not ensured", table)
	}
	if len(row) != len(header) {
		return fmt.Errorf("append to %s: got %d values, header has %d columns", table, len(row), len(header))
	}

	s.rows[table] = append(s.rows[table], append([]string(nil), row...))
	return nil
}

func (s *MemoryStore) CountRows(_ context.Context, table string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[table]), nil
}

// Rows returns a copy of the appended rows for assertions.
func (s *MemoryStore) Rows(table string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]string, len(s.rows[table]))
	for i, row := range s.rows[table] {
		out[i] = append([]string(nil), row...)
	}
	return out
}
