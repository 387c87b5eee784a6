package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL applies when the token carries no exp claim
const DefaultSessionTTL = 24 * time.Hour

const redisKeyPrefix = "diabetes-dashboard:session:"

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Profile  string
}

// RedisStore shares a session between workstations through Redis.
// The value is loaded once when the store is created so Get stays synchronous.
type RedisStore struct {
	mu     sync.RWMutex
	client *redis.Client
	key    string
	creds  *Credentials
	now    func() time.Time
}

// NewRedisStore connects to Redis and loads the current session
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(ctx, client, opts.Profile)
}

func newRedisStore(ctx context.Context, client *redis.Client, profile string) (*RedisStore, error) {
	if profile == "" {
		profile = "default"
	}
	s := &RedisStore{
		client: client,
		key:    redisKeyPrefix + profile,
		now:    time.Now,
	}

	data, err := client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s, nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err == nil && c.Token != "" {
		s.creds = &c
	}
	return s, nil
}

// Key returns the Redis key holding the session
func (s *RedisStore) Key() string {
	return s.key
}

// Get returns the cached credentials
func (s *RedisStore) Get() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// Set stores the credentials with a TTL matching the token expiry
func (s *RedisStore) Set(c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	ttl := DefaultSessionTTL
	if exp, ok := ExpiresAt(c.Token); ok {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			return errors.New("token already expired")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	s.creds = &c
	return nil
}

// Clear deletes the session key
func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
