package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Call records one operation received by a MemoryGateway.
type Call struct {
	Op         string
	EntityType string
	ID         string
}

type scriptedResponse struct {
	ids   []string
	total int
}

type scriptedFailure struct {
	op  string
	id  string
	err error
}

// MemoryGateway is a map-backed gateway that records every call. Queries do
// case-insensitive substring matching unless a response has been scripted
// with SetResponse.
type MemoryGateway struct {
	mu        sync.Mutex
	entries   map[string]map[string]map[string]string
	calls     []Call
	responses map[string]scriptedResponse
	failures  []scriptedFailure
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		entries:   make(map[string]map[string]map[string]string),
		responses: make(map[string]scriptedResponse),
	}
}

// SetResponse makes every query against entityType return ids and total.
func (m *MemoryGateway) SetResponse(entityType string, ids []string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[entityType] = scriptedResponse{ids: append([]string(nil), ids...), total: total}
}

// FailOn makes op fail with err. An empty id fails the op for every id.
func (m *MemoryGateway) FailOn(op, id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, scriptedFailure{op: op, id: id, err: err})
}

// Calls returns a copy of the calls received so far.
func (m *MemoryGateway) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Entry returns the stored fields for (entityType, id).
func (m *MemoryGateway) Entry(entityType, id string) (map[string]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.entries[entityType][id]
	return fields, ok
}

// Len returns the number of entries stored for entityType.
func (m *MemoryGateway) Len(entityType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[entityType])
}

func (m *MemoryGateway) record(op, entityType, id string) error {
	m.calls = append(m.calls, Call{Op: op, EntityType: entityType, ID: id})
	for _, f := range m.failures {
		if f.op == op && (f.id == "" || f.id == id) {
			return &CallError{Op: op, EntityType: entityType, ID: id, Err: f.err}
		}
	}
	return nil
}

func (m *MemoryGateway) Put(ctx context.Context, entityType, id string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("put", entityType, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return AsCallError("put", entityType, id, err)
	}

	stored := make(map[string]string, len(fields))
	for k, v := range fields {
		stored[k] = v
	}
	if m.entries[entityType] == nil {
		m.entries[entityType] = make(map[string]map[string]string)
	}
	m.entries[entityType][id] = stored
	return nil
}

func (m *MemoryGateway) Delete(ctx context.Context, entityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete", entityType, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return AsCallError("delete", entityType, id, err)
	}
	delete(m.entries[entityType], id)
	return nil
}

func (m *MemoryGateway) Query(ctx context.Context, entityType, text string) ([]string, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("query", entityType, ""); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, AsCallError("query", entityType, "", err)
	}

	if r, ok := m.responses[entityType]; ok {
		return append([]string(nil), r.ids...), r.total, nil
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	var ids []string
	for id, fields := range m.entries[entityType] {
		for _, value := range fields {
			if needle != "" && strings.Contains(strings.ToLower(value), needle) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, len(ids), nil
}

func (m *MemoryGateway) Clear(ctx context.Context, entityType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("clear", entityType, ""); err != nil {
		return err
	}
	delete(m.entries, entityType)
	return nil
}

func (m *MemoryGateway) Count(ctx context.Context, entityType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[entityType]), nil
}
