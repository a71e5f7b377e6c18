package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions configures batching of audit writes.
type AsyncOptions struct {
	BufferSize     int           // records queued before Store falls back to a direct write
	BatchSize      int           // records per batch
	BatchTimeout   time.Duration // max wait for a partial batch
	StorageTimeout time.Duration // per-batch storage timeout
	// NoWait makes Store return once the record is queued instead of waiting
	// for the batch to be written.
	NoWait bool
	// OnError receives batch write failures. Only useful with NoWait.
	OnError func(err error, records []Record)
}

// AsyncWriter buffers records and writes them in batches from a single
// goroutine. Queries go straight to the underlying storage.
type AsyncWriter struct {
	storage Storage
	batch   BatchStorage
	queue   chan queued
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	options AsyncOptions
}

type queued struct {
	record Record
	result chan error
}

// NewAsyncWriter wraps storage. Storages without StoreBatch are written
// record by record inside each batch.
func NewAsyncWriter(storage Storage, opts AsyncOptions) *AsyncWriter {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	aw := &AsyncWriter{
		storage: storage,
		queue:   make(chan queued, opts.BufferSize),
		done:    make(chan struct{}),
		options: opts,
	}
	if bs, ok := storage.(BatchStorage); ok {
		aw.batch = bs
	}

	aw.wg.Add(1)
	go aw.worker()

	return aw
}

// Store queues a record. When the buffer is full the record is written
// synchronously so that no audit entry is dropped.
func (aw *AsyncWriter) Store(ctx context.Context, record Record) error {
	select {
	case <-aw.done:
		return ErrStorageNotAvailable
	default:
	}

	var result chan error
	if !aw.options.NoWait {
		result = make(chan error, 1)
	}

	select {
	case aw.queue <- queued{record: record, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return aw.write(ctx, []Record{record})
	}

	if result == nil {
		return nil
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query reads from the underlying storage. Queued records may not be visible yet.
func (aw *AsyncWriter) Query(ctx context.Context, criteria Criteria) ([]Record, error) {
	return aw.storage.Query(ctx, criteria)
}

// Count delegates to the underlying storage when it supports counting.
func (aw *AsyncWriter) Count(ctx context.Context, criteria Criteria) (int64, error) {
	if c, ok := aw.storage.(Counter); ok {
		return c.Count(ctx, criteria)
	}
	records, err := aw.storage.Query(ctx, criteria)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// Close flushes queued records and stops the worker. The context bounds the wait.
func (aw *AsyncWriter) Close(ctx context.Context) error {
	aw.once.Do(func() { close(aw.done) })

	flushed := make(chan struct{})
	go func() {
		aw.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (aw *AsyncWriter) worker() {
	defer aw.wg.Done()

	records := make([]Record, 0, aw.options.BatchSize)
	results := make([]chan error, 0, aw.options.BatchSize)
	ticker := time.NewTicker(aw.options.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(records) == 0 {
			return
		}

		// Detached from request contexts so a cancelled request cannot abort a batch.
		ctx, cancel := context.WithTimeout(context.Background(), aw.options.StorageTimeout)
		err := aw.write(ctx, records)
		cancel()

		if err != nil && aw.options.OnError != nil {
			aw.options.OnError(err, append([]Record(nil), records...))
		}
		for _, ch := range results {
			if ch != nil {
				ch <- err
			}
		}

		clear(records)
		records = records[:0]
		results = results[:0]
	}

	for {
		select {
		case q := <-aw.queue:
			records = append(records, q.record)
			results = append(results, q.result)
			if len(records) >= aw.options.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-aw.done:
			for {
				select {
				case q := <-aw.queue:
					records = append(records, q.record)
					results = append(results, q.result)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (aw *AsyncWriter) write(ctx context.Context, records []Record) error {
	if aw.batch != nil {
		return aw.batch.StoreBatch(ctx, records)
	}
	for _, r := range records {
		if err := aw.storage.Store(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
