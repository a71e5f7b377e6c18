package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger stamps and persists audit records.
type Logger struct {
	storage   Storage
	hasher    Hasher
	requestID func(context.Context) (string, bool)
	now       func() time.Time
	async     *AsyncWriter
}

// Option configures a Logger.
type Option func(*Logger)

// WithRequestIDExtractor copies the request id from ctx into every record.
func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.requestID = fn
	}
}

// WithHasher overrides the checksum hasher. Nil disables checksums.
func WithHasher(h Hasher) Option {
	return func(l *Logger) {
		l.hasher = h
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithAsync batches writes through an AsyncWriter. Call Close on shutdown.
func WithAsync(opts AsyncOptions) Option {
	return func(l *Logger) {
		l.async = NewAsyncWriter(l.storage, opts)
		l.storage = l.async
	}
}

// NewLogger creates a logger on top of storage.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		hasher:  NewSHA256Hasher(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record fills in id, timestamp, request id and checksum, validates the
// record and stores it.
func (l *Logger) Record(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = l.now().UTC()
	}
	if record.RequestID == "" && l.requestID != nil {
		if id, ok := l.requestID(ctx); ok {
			record.RequestID = id
		}
	}

	if err := record.Validate(); err != nil {
		return err
	}

	if l.hasher != nil {
		record.Checksum = l.hasher.Hash(record)
	}

	return l.storage.Store(ctx, record)
}

// Storage returns the storage records are written to.
func (l *Logger) Storage() Storage {
	return l.storage
}

// Close flushes pending asynchronous writes.
func (l *Logger) Close(ctx context.Context) error {
	if l.async == nil {
		return nil
	}
	return l.async.Close(ctx)
}
