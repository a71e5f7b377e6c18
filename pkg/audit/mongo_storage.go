package audit

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection used by NewMongoStorageFromDB.
const DefaultMongoCollection = "authorization_audit"

// MongoStorage stores records in a MongoDB collection.
type MongoStorage struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewMongoStorage wraps an existing collection.
func NewMongoStorage(col *mongo.Collection) *MongoStorage {
	return &MongoStorage{col: col, timeout: 5 * time.Second}
}

// NewMongoStorageFromDB uses DefaultMongoCollection of db.
func NewMongoStorageFromDB(db *mongo.Database) *MongoStorage {
	return NewMongoStorage(db.Collection(DefaultMongoCollection))
}

// EnsureIndexes creates the indexes used by Query.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "principal_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "current_tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "attempted_tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) Store(ctx context.Context, record Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.col.InsertOne(ctx, record); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *MongoStorage) StoreBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.col.InsertMany(ctx, records); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *MongoStorage) Query(ctx context.Context, criteria Criteria) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if criteria.Limit > 0 {
		opts.SetLimit(int64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		opts.SetSkip(int64(criteria.Offset))
	}

	cur, err := s.col.Find(ctx, mongoFilter(criteria), opts)
	if err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	defer cur.Close(ctx)

	out := make([]Record, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return out, nil
}

func (s *MongoStorage) Count(ctx context.Context, criteria Criteria) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.col.CountDocuments(ctx, mongoFilter(criteria))
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return n, nil
}

func mongoFilter(c Criteria) bson.M {
	filter := bson.M{}
	if c.Kind != "" {
		filter["kind"] = c.Kind
	}
	if c.PrincipalID != 0 {
		filter["principal_id"] = c.PrincipalID
	}
	if c.TenantID != 0 {
		filter["$or"] = bson.A{
			bson.M{"current_tenant_id": c.TenantID},
			bson.M{"attempted_tenant_id": c.TenantID},
		}
	}
	if c.Decision != "" {
		filter["decision"] = c.Decision
	}
	if !c.StartTime.IsZero() || !c.EndTime.IsZero() {
		created := bson.M{}
		if !c.StartTime.IsZero() {
			created["$gte"] = c.StartTime
		}
		if !c.EndTime.IsZero() {
			created["$lt"] = c.EndTime
		}
		filter["created_at"] = created
	}
	return filter
}
