package staging

import (
	"context"
	"sync"
	"time"

	"github.com/cardlens/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory scan repository for development
// and tests. Expired scans linger for a retention window so a late confirm
// can be answered with "expired" rather than "not found".
type MemoryStore struct {
	scans     map[string]*domain.ScanResult
	mutex     sync.RWMutex
	retention time.Duration
}

// NewMemoryStore creates a new in-memory staging store. Retention bounds how
// long an expired scan stays resolvable before the sweeper drops it.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	store := &MemoryStore{
		scans:     make(map[string]*domain.ScanResult),
		retention: retention,
	}

	// Sweep entries past their retention window every 10 minutes
	go store.sweepExpired()

	return store
}

func stageKey(ownerID, scanID string) string {
	return ownerID + "/" + scanID
}

// Save stages a scan
func (s *MemoryStore) Save(ctx context.Context, scan *domain.ScanResult) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *scan
	s.scans[stageKey(scan.OwnerID, scan.ID)] = &copied
	return nil
}

// Get returns a copy of the staged scan. Expiry is the caller's concern;
// only scans past their retention window read as missing.
func (s *MemoryStore) Get(ctx context.Context, ownerID, scanID string) (*domain.ScanResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scan, exists := s.scans[stageKey(ownerID, scanID)]
	if !exists {
		return nil, domain.ErrScanNotFound
	}

	copied := *scan
	return &copied, nil
}

// Confirm flips a PENDING, unexpired scan to CONFIRMED and returns the scan
// as it was before the flip. The check and the flip happen under one lock,
// so concurrent confirms for the same scan see exactly one winner.
func (s *MemoryStore) Confirm(ctx context.Context, ownerID, scanID string) (*domain.ScanResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	scan, exists := s.scans[stageKey(ownerID, scanID)]
	if !exists {
		return nil, domain.ErrScanNotFound
	}
	if scan.Status != domain.ScanStatusPending {
		return nil, domain.ErrScanNotFound
	}
	if scan.Expired(time.Now()) {
		return nil, domain.ErrScanExpired
	}

	copied := *scan
	scan.Status = domain.ScanStatusConfirmed
	return &copied, nil
}

// Reopen reverts a confirmed scan to PENDING so a failed downstream write
// can be retried
func (s *MemoryStore) Reopen(ctx context.Context, ownerID, scanID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	scan, exists := s.scans[stageKey(ownerID, scanID)]
	if !exists {
		return domain.ErrScanNotFound
	}

	scan.Status = domain.ScanStatusPending
	return nil
}

// sweepExpired drops scans past their retention window periodically
func (s *MemoryStore) sweepExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		for key, scan := range s.scans {
			if now.After(scan.ExpiresAt.Add(s.retention)) {
				delete(s.scans, key)
			}
		}
		s.mutex.Unlock()
	}
}

// Size returns the current number of staged scans (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.scans)
}
