package persist

import (
	"context"
	"sync"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

// Memory keeps the payload in process. Intended for tests and the
// "memory" backend.
type Memory struct {
	mu      sync.Mutex
	payload *types.Payload
	saves   int
	failErr error
}

// NewMemory creates an empty in-memory persister.
func NewMemory() *Memory { return &Memory{} }

// NewMemoryWith creates an in-memory persister pre-loaded with p.
func NewMemoryWith(p types.Payload) *Memory {
	m := &Memory{}
	m.payload = clonePayload(p)
	return m
}

// Load returns a copy of the stored payload.
func (m *Memory) Load(_ context.Context) (*types.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil, nil
	}
	return clonePayload(*m.payload), nil
}

// Save stores a copy of p, or returns the error set by FailWith.
func (m *Memory) Save(_ context.Context, p types.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.payload = clonePayload(p)
	m.saves++
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Saves reports how many successful saves were made.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailWith makes subsequent saves return err (nil restores success).
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func clonePayload(p types.Payload) *types.Payload {
	s := p.State()
	out := types.Payload{ExportDate: p.ExportDate}
	if p.Taxonomy != nil {
		out.Taxonomy = &s.Taxonomy
	}
	if p.Customizations != nil {
		out.Customizations = &s.Customizations
	}
	if p.Migrations != nil {
		out.Migrations = &s.Migrations
	}
	if p.UsageStats != nil {
		out.UsageStats = &s.Usage
	}
	if p.Version != nil {
		v := *p.Version
		out.Version = &v
	}
	return &out
}
