package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. Records are lost on restart.
type MemoryStore struct {
	// data stores the records
	data map[string]*storedRecord

	// mu protects concurrent access to data
	mu sync.RWMutex

	// cleanupTicker controls the background cleanup interval
	cleanupTicker *time.Ticker

	// stopCleanup is used to signal cleanup goroutine to stop
	stopCleanup chan struct{}

	// wg waits for cleanup goroutine to finish
	wg sync.WaitGroup

	now func() time.Time
}

type storedRecord struct {
	rec       Record
	expiresAt time.Time
}

// NewMemoryStore creates a store that drops expired records every
// cleanupInterval (default one minute).
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &MemoryStore{
		data:          make(map[string]*storedRecord),
		stopCleanup:   make(chan struct{}),
		cleanupTicker: time.NewTicker(cleanupInterval),
		now:           time.Now,
	}

	s.wg.Add(1)
	go s.cleanup()

	return s
}

func (s *MemoryStore) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = &storedRecord{rec: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	stored, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return Record{}, ErrSessionNotFound
	}
	if s.now().After(stored.expiresAt) {
		s.mu.Lock()
		delete(s.data, id)
		s.mu.Unlock()
		return Record{}, ErrSessionNotFound
	}
	return stored.rec, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[id]
	if !ok || s.now().After(stored.expiresAt) {
		return ErrSessionNotFound
	}
	stored.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Name() string {
	return "memory"
}

// Close stops the cleanup goroutine and clears all records.
func (s *MemoryStore) Close() error {
	s.cleanupTicker.Stop()
	close(s.stopCleanup)
	s.wg.Wait()

	s.mu.Lock()
	s.data = make(map[string]*storedRecord)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) cleanup() {
	defer s.wg.Done()

	for {
		select {
		case <-s.cleanupTicker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, stored := range s.data {
		if now.After(stored.expiresAt) {
			delete(s.data, id)
		}
	}
}
