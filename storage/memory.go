package storage

import (
	"fmt"

	"github.com/xzrunner/playdb/internal/base"
)

// Memory is a non-persistent Manager. Deleted ids are reused most recently
// freed first. Unknown ids fail with ErrInvalidPage on every operation.
//
// Memory is not safe for concurrent use.
type Memory struct {
	records  [][]byte
	live     []bool
	freelist []PageID
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) lookup(id PageID) error {
	if id < 0 || int(id) >= len(m.records) || !m.live[id] {
		return fmt.Errorf("%w: unknown page id %d", base.ErrInvalidPage, id)
	}
	return nil
}

// Load returns a copy of the record stored under id.
func (m *Memory) Load(id PageID) ([]byte, error) {
	if err := m.lookup(id); err != nil {
		return nil, err
	}
	return append([]byte{}, m.records[id]...), nil
}

// Store copies data into the store.
func (m *Memory) Store(id PageID, data []byte) (PageID, error) {
	buf := append([]byte{}, data...)

	if id != NewPage {
		if err := m.lookup(id); err != nil {
			return NewPage, err
		}
		m.records[id] = buf
		return id, nil
	}

	if n := len(m.freelist); n > 0 {
		id = m.freelist[n-1]
		m.freelist = m.freelist[:n-1]
		m.records[id] = buf
		m.live[id] = true
		return id, nil
	}

	m.records = append(m.records, buf)
	m.live = append(m.live, true)
	return PageID(len(m.records) - 1), nil
}

// Delete releases the record stored under id.
func (m *Memory) Delete(id PageID) error {
	if err := m.lookup(id); err != nil {
		return err
	}
	m.records[id] = nil
	m.live[id] = false
	m.freelist = append(m.freelist, id)
	return nil
}

// Len returns the number of live records.
func (m *Memory) Len() int {
	return len(m.records) - len(m.freelist)
}
