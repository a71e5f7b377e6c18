package session

import (
	"encoding/json"
	"maps"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side key/value bag bound to a client token.
// A session is owned by a single request at a time and is not safe for
// concurrent mutation.
type Session struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	UserID         int64          `json:"user_id,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`

	modified bool
	fresh    bool
}

// NewSession creates an anonymous session that expires after ttl.
func NewSession(token string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		Data:           make(map[string]any),
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != 0
}

// IsExpired reports whether the session passed its expiry.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Has reports whether key is present.
func (s *Session) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Get retrieves a raw value.
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	val, ok := s.Data[key]
	return val, ok
}

// GetString retrieves a string value.
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt64 retrieves an integer value. Values decoded from a store may come
// back as float64 or json.Number, both are accepted when integral.
func (s *Session) GetInt64(key string) (int64, bool) {
	val, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// GetBool retrieves a bool value.
func (s *Session) GetBool(key string) (bool, bool) {
	val, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Set stores a value and marks the session modified.
func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
	s.modified = true
}

// Remove deletes a key. Removing a missing key is a no-op.
func (s *Session) Remove(key string) {
	if s == nil || s.Data == nil {
		return
	}
	if _, ok := s.Data[key]; !ok {
		return
	}
	delete(s.Data, key)
	s.modified = true
}

// Clear removes all data.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	if len(s.Data) > 0 {
		s.modified = true
	}
	s.Data = make(map[string]any)
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool {
	return s != nil && s.modified
}

// IsNew reports whether the session has not been persisted yet.
func (s *Session) IsNew() bool {
	return s != nil && s.fresh
}

// Touch updates the last activity time.
func (s *Session) Touch() {
	if s == nil {
		return
	}
	s.LastActivityAt = time.Now()
}

func (s *Session) clone() *Session {
	cp := *s
	if s.Data != nil {
		cp.Data = make(map[string]any, len(s.Data))
		maps.Copy(cp.Data, s.Data)
	}
	cp.modified = false
	cp.fresh = false
	return &cp
}
