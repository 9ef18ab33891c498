package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a token does not resolve to a stored session.
var ErrNoSession = errors.New("session not found")

// Session identifies an authenticated user. It is resolved per request and
// passed explicitly; there is no process-wide auth state.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Store persists opaque-token sessions in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store. A zero ttl disables expiry.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		panic("session: redis client required")
	}
	return &Store{client: client, ttl: ttl}
}

func sessionKeyFor(token string) string {
	return "session:" + token
}

// Put stores the session under the given opaque token.
func (s *Store) Put(ctx context.Context, token string, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal failed: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyFor(token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: store failed: %w", err)
	}
	return nil
}

// Get resolves an opaque token to a session.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyFor(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: lookup failed: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session: decode failed: %w", err)
	}
	return &sess, nil
}

// Delete revokes an opaque token. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyFor(token)).Err(); err != nil {
		return fmt.Errorf("session: delete failed: %w", err)
	}
	return nil
}
