package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps serialized jobs in process. Records are copies, so later
// mutation of a saved *Job is not visible to readers.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Purger = (*MemoryStore)(nil)
)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttlOrDefault(ttl),
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	if job == nil {
		return errors.New("dispatch: job cannot be nil")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("dispatch: marshal job: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*Job, error) {
	s.mu.Lock()
	entry, ok := s.entries[jobID]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, jobID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	var job Job
	if err := json.Unmarshal(entry.data, &job); err != nil {
		return nil, fmt.Errorf("dispatch: decode job: %w", err)
	}
	return &job, nil
}

// PurgeExpired drops expired records and reports how many were removed.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var removed int64
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}
