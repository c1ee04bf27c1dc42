package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	ports "produtivo/internal/sheets"
)

// Store keeps exported rows in memory. Used in development and tests.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	fail error
}

var _ ports.TransactionExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export stores the row and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, e ports.Entry) (string, error) {
	if err := e.Transaction.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.rows = append(s.rows, ports.Row(e))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Update replaces the row behind a "mem:N" reference.
func (s *Store) Update(_ context.Context, ref string, e ports.Entry) (string, error) {
	if err := e.Transaction.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "mem:"))
	if !strings.HasPrefix(ref, "mem:") || err != nil || n < 1 || n > len(s.rows) {
		return "", fmt.Errorf("unknown row reference %q", ref)
	}
	s.rows[n-1] = ports.Row(e)
	return ref, nil
}

// Rows returns a copy of everything exported so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}

// FailWith makes subsequent exports return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
