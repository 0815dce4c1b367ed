package rowstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and the seed/dev mode. It keeps
// append order, which the audit and event views rely on.
type Memory struct {
	mu     sync.Mutex
	tables map[string][]Record
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Record)}
}

func (m *Memory) GetRows(_ context.Context, table string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out, nil
}

func (m *Memory) AppendRow(_ context.Context, table string, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables[table] = append(m.tables[table], record.Clone())
	return nil
}

func (m *Memory) UpdateRowByID(_ context.Context, table, keyColumn, id string, patch Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.tables[table] {
		if matchesID(row, keyColumn, id) {
			updated := row.Clone()
			for k, v := range patch {
				updated[k] = v
			}
			m.tables[table][i] = updated
			return nil
		}
	}
	return ErrRowNotFound
}

func (m *Memory) DeleteRowByID(_ context.Context, table, keyColumn, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.tables[table]
	for i, row := range rows {
		if matchesID(row, keyColumn, id) {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrRowNotFound
}

func (m *Memory) FindByID(_ context.Context, table, keyColumn, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.tables[table] {
		if matchesID(row, keyColumn, id) {
			return row.Clone(), nil
		}
	}
	return nil, ErrRowNotFound
}
