package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and the demo backend. Safe for
// concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]Table
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]Table)}
}

func (m *Memory) ReadAll(_ context.Context, name string) (Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return Table{}, ErrTableNotFound
	}
	return copyTable(t), nil
}

func (m *Memory) WriteAll(_ context.Context, name string, t Table, expect string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.tables[name]; ok && expect != "" && cur.Version != expect {
		return ErrStaleWrite
	}
	t = copyTable(t)
	t.Version = uuid.NewString()
	m.tables[name] = t
	return nil
}

func (m *Memory) Clear(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; !ok {
		return ErrTableNotFound
	}
	m.tables[name] = Table{Version: uuid.NewString()}
	return nil
}

func (m *Memory) ListTables(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for n := range m.tables {
		names = append(names, n)
	}
	return names, nil
}

func copyTable(t Table) Table {
	out := Table{Version: t.Version}
	out.Header = append([]string(nil), t.Header...)
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
