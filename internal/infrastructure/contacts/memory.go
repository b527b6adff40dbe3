package contacts

import (
	"context"
	"fmt"
	"sync"

	"github.com/cardlens/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory contact repository for development
// and tests
type MemoryStore struct {
	records map[string]*domain.ContactRecord
	mutex   sync.RWMutex
}

// NewMemoryStore creates a new in-memory contact store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.ContactRecord)}
}

// Create stores a permanent contact record
func (s *MemoryStore) Create(ctx context.Context, record *domain.ContactRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("contact %s already exists", record.ID)
	}

	copied := *record
	s.records[record.ID] = &copied
	return nil
}

// Size returns the number of stored contacts (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.records)
}
