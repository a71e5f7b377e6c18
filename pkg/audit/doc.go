// Package audit records authorization decisions that cross tenant
// boundaries.
//
// A Logger stamps each Record with an id, a UTC timestamp, the request id and
// a SHA-256 checksum, then hands it to a Storage. MemoryStorage serves tests
// and single-node setups; MongoStorage persists to a MongoDB collection.
//
//	store := audit.NewMongoStorageFromDB(db)
//	_ = store.EnsureIndexes(ctx)
//	log := audit.NewLogger(store, audit.WithAsync(audit.AsyncOptions{NoWait: true}))
//	defer log.Close(ctx)
//
// WithAsync routes writes through an AsyncWriter which batches records and
// falls back to a direct write when its buffer is full, so records are never
// dropped under load.
//
// Reader queries records back by kind, principal, tenant and time range.
package audit
