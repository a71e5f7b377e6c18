package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces session keys.
const DefaultRedisKeyPrefix = "session:"

// RedisStore implements Store on Redis. Each session is one JSON value whose
// key expires together with the session, so DeleteExpired has nothing to do.
type RedisStore struct {
	db     redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a connected client. An empty prefix falls back to
// DefaultRedisKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{db: client, prefix: prefix}
}

func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if err := s.db.Set(ctx, s.key(session.Token), raw, ttl).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	raw, err := s.db.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	// UseNumber keeps integer ids exact instead of turning them into float64.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var session Session
	if err := dec.Decode(&session); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	ok, err := s.db.SetXX(ctx, s.key(session.Token), raw, ttl).Result()
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.Del(ctx, s.key(token)).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own.
func (s *RedisStore) DeleteExpired(ctx context.Context) error {
	return nil
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}
