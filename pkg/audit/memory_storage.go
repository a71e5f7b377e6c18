package audit

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStorage keeps records in memory, newest last.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(record))
	return nil
}

func (s *MemoryStorage) StoreBatch(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records = append(s.records, cloneRecord(r))
	}
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStorage) Query(ctx context.Context, criteria Criteria) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range slices.Backward(s.records) {
		if criteria.Matches(r) {
			out = append(out, cloneRecord(r))
		}
	}

	if criteria.Offset > 0 {
		if criteria.Offset >= len(out) {
			return []Record{}, nil
		}
		out = out[criteria.Offset:]
	}
	if criteria.Limit > 0 && len(out) > criteria.Limit {
		out = out[:criteria.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if criteria.Matches(r) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(r Record) Record {
	if r.Metadata != nil {
		r.Metadata = maps.Clone(r.Metadata)
	}
	return r
}
