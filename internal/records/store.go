// Package records stores values copied back from sheets onto the record
// that owns a form.
package records

import (
	"context"
	"errors"
	"sync"
)

var ErrMissingRecordID = errors.New("no record ID provided")

// Store persists one field value per record.
type Store interface {
	SetField(ctx context.Context, recordID, field, value string) error
	Fields(ctx context.Context, recordID string) (map[string]string, error)
}

// Memory keeps record fields in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string]string)}
}

func (m *Memory) SetField(ctx context.Context, recordID, field, value string) error {
	if recordID == "" {
		return ErrMissingRecordID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fields, ok := m.records[recordID]
	if !ok {
		fields = make(map[string]string)
		m.records[recordID] = fields
	}
	fields[field] = value
	return nil
}

func (m *Memory) Fields(ctx context.Context, recordID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.records[recordID]))
	for k, v := range m.records[recordID] {
		out[k] = v
	}
	return out, nil
}
