package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
)

// PostgresStore implements RecordStore on a Postgres database, one table per
// form kind with text columns in the registered header order.
type PostgresStore struct {
	db *sql.DB

	mu      sync.RWMutex
	headers map[string][]string
}

// NewPostgresStore creates a new Postgres-backed record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		headers: make(map[string][]string),
	}
}

func (s *PostgresStore) EnsureTable(ctx context.Context, table string, header []string) error {
	cols := make([]string, 0, len(header)+1)
	cols = append(cols, "id SERIAL PRIMARY KEY")
	for _, col := range header {
		cols = append(cols, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", pq.QuoteIdentifier(col)))
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "))

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}

	s.mu.Lock()
	s.headers[table] = append([]string(nil), header...)
	s.mu.Unlock()

	return nil
}

func (s *PostgresStore) Append(ctx context.Context, table string, row []string) error {
	s.mu.RLock()
	header, ok := s.headers[table]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("append to %s: table not ensured", table)
	}
	if len(row) != len(header) {
		return fmt.Errorf("append to %s: got %d values, header has %d columns", table, len(row), len(header))
	}

	cols := make([]string, len(header))
	placeholders := make([]string, len(header))
	args := make([]interface{}, len(row))
	for i, col := range header {
		cols[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[i]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}

	return nil
}

func (s *PostgresStore) CountRows(ctx context.Context, table string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(table))

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}

	return count, nil
}
