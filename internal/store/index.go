package store

import (
	"context"
	"sort"
	"sync"
)

// Index maps ids and content hashes to file records.
type Index interface {
	Insert(ctx context.Context, f *File) error
	Get(ctx context.Context, id string) (*File, error)
	GetBySHA256(ctx context.Context, sum string) (*File, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*File, error)
	Close() error
}

// MemoryIndex is a process-local Index. Records are lost on restart.
type MemoryIndex struct {
	mu    sync.RWMutex
	byID  map[string]*File
	bySHA map[string]string
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID:  make(map[string]*File),
		bySHA: make(map[string]string),
	}
}

func (m *MemoryIndex) Insert(ctx context.Context, f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.byID[f.ID] = &cp
	m.bySHA[f.SHA256] = f.ID
	return nil
}

func (m *MemoryIndex) Get(ctx context.Context, id string) (*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryIndex) GetBySHA256(ctx context.Context, sum string) (*File, error) {
	m.mu.RLock()
	id, ok := m.bySHA[sum]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	if m.bySHA[f.SHA256] == id {
		delete(m.bySHA, f.SHA256)
	}
	return nil
}

func (m *MemoryIndex) List(ctx context.Context) ([]*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*File, 0, len(m.byID))
	for _, f := range m.byID {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryIndex) Close() error {
	return nil
}

var _ Index = (*MemoryIndex)(nil)
