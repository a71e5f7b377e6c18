package audit

import "context"

// Reader queries stored audit records.
type Reader struct {
	storage Storage
}

// NewReader creates a reader over storage.
func NewReader(storage Storage) *Reader {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	return &Reader{storage: storage}
}

// Find returns records matching criteria, newest first.
func (r *Reader) Find(ctx context.Context, criteria Criteria) ([]Record, error) {
	return r.storage.Query(ctx, criteria)
}

// Count returns the number of matching records. Storages without a native
// count are queried and counted in memory.
func (r *Reader) Count(ctx context.Context, criteria Criteria) (int64, error) {
	if counter, ok := r.storage.(Counter); ok {
		return counter.Count(ctx, criteria)
	}

	records, err := r.storage.Query(ctx, criteria)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}
