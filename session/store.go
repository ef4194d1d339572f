package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrNotFound         = errors.New("session not found")
)

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store keeps sessions in Redis under prefix, with a per-user index set so
// every session of a user can be revoked at once.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	ttl     time.Duration
	sliding bool
	now     func() time.Time
}

// NewStore creates a store. ttl is the absolute lifetime; with sliding set,
// each Get pushes the Redis expiry forward up to that lifetime.
func NewStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration, sliding bool) *Store {
	if prefix == "" {
		prefix = "mfabridge:sess:"
	}
	return &Store{redis: redisClient, prefix: prefix, ttl: ttl, sliding: sliding, now: time.Now}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) userKey(username string) string {
	return s.prefix + "u:" + username
}

// Create assigns an id and timestamps to sess and saves it.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	now := s.now()
	sess.ID = uuid.NewString()
	sess.CreatedAt = now.Unix()
	sess.ExpiresAt = now.Add(s.ttl).Unix()
	return s.Save(ctx, sess)
}

// Save writes sess and indexes it under its username.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(time.Unix(sess.ExpiresAt, 0))
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.Username), sess.ID)
		pipe.Expire(ctx, s.userKey(sess.Username), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get loads a session. Expired or missing sessions return [ErrNotFound].
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	key := s.key(id)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.ID = id

	now := s.now()
	remaining := time.Unix(sess.ExpiresAt, 0).Sub(now)
	if remaining <= 0 {
		if err := s.Delete(ctx, sess); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	if s.sliding {
		if err := s.redis.Expire(ctx, key, remaining).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return sess, nil
}

// Delete removes sess. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sess *Session) error {
	err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(sess.ID), s.userKey(sess.Username)}, sess.ID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAllForUser revokes every session of username.
func (s *Store) DeleteAllForUser(ctx context.Context, username string) error {
	ids, err := s.ActiveSessionIDs(ctx, username)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.userKey(username))
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ActiveSessionIDs lists indexed session ids for username. Ids of sessions
// that already expired may still appear until the index itself expires.
func (s *Store) ActiveSessionIDs(ctx context.Context, username string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}
