package search

import (
	"context"
	"sync"

	"personmatch/internal/query"
)

// Memory is an in-memory Client for tests. It returns its seeded records
// and remembers the last executed query for assertions.
type Memory struct {
	mu        sync.Mutex
	records   []Record
	err       error
	LastQuery query.Query
	LastSize  int
}

// NewMemory constructs an empty in-memory client.
func NewMemory() *Memory {
	return &Memory{}
}

// Seed replaces the records every Search returns.
func (m *Memory) Seed(records ...Record) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
	return m
}

// Fail makes every Search return err.
func (m *Memory) Fail(err error) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

func (m *Memory) Search(_ context.Context, q query.Query, size int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastQuery = q
	m.LastSize = size
	if m.err != nil {
		return nil, m.err
	}
	if size < len(m.records) {
		return m.records[:size], nil
	}
	return m.records, nil
}
