package playbook

import (
	"context"
	"sort"
	"sync"

	"github.com/haven-sec/rehearse/internal/types"
)

// Store provides read-only access to validated playbooks, keyed by playbook
// ID. Implementations are immutable for the lifetime of the process once
// loading finishes.
type Store interface {
	// GetPlaybook returns the playbook with the given ID, or a
	// PLAYBOOK_NOT_FOUND error.
	GetPlaybook(ctx context.Context, id string) (*Playbook, error)

	// ListPlaybooks returns all loaded playbooks ordered by ID.
	ListPlaybooks(ctx context.Context) []*Playbook
}

// MemoryStore is the in-process Store implementation. Playbooks are added
// during startup and treated as immutable afterwards; the mutex only guards
// the load phase against concurrent readers in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	playbooks map[string]*Playbook
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{playbooks: make(map[string]*Playbook)}
}

// Add validates pb and registers it. Duplicate IDs are a load-time error.
func (s *MemoryStore) Add(pb *Playbook) error {
	if err := NewValidator().Validate(pb); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.playbooks[pb.ID]; exists {
		return types.NewErrorf(types.PLAYBOOK_LOAD_FAILED, "playbook %s already registered", pb.ID)
	}
	s.playbooks[pb.ID] = pb
	return nil
}

// LoadDir loads every playbook definition in dir into the store.
func (s *MemoryStore) LoadDir(dir string) error {
	playbooks, err := LoadPlaybookDir(dir)
	if err != nil {
		return err
	}
	for _, pb := range playbooks {
		if err := s.Add(pb); err != nil {
			return err
		}
	}
	return nil
}

// GetPlaybook implements Store.
func (s *MemoryStore) GetPlaybook(_ context.Context, id string) (*Playbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pb, ok := s.playbooks[id]
	if !ok {
		return nil, types.NewErrorf(types.PLAYBOOK_NOT_FOUND, "playbook %s not found", id)
	}
	return pb, nil
}

// ListPlaybooks implements Store.
func (s *MemoryStore) ListPlaybooks(_ context.Context) []*Playbook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Playbook, 0, len(s.playbooks))
	for _, pb := range s.playbooks {
		out = append(out, pb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Store = (*MemoryStore)(nil)
