// Package kv provides a Redis-backed cache (C5), grounded on the
// connection/key/TTL/scan-delete shape of internal/skills/redis_cache.go.
// Unlike that cache, a connection failure here degrades rather than
// panics: callers get apperr.Degraded so request-scoped query caching
// can be skipped without failing the request (spec.md's degraded-mode
// requirement for non-essential stores).
package kv

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"singularityio/internal/apperr"
)

// Store wraps a redis.UniversalClient for simple get/set/delete use.
type Store struct {
	client redis.UniversalClient
}

// Config mirrors config.RedisConfig's shape without importing the config
// package, keeping this store independently testable.
type Config struct {
	Addr                  string
	Password              string
	DB                    int
	TLSInsecureSkipVerify bool
}

func New(cfg Config) (*Store, error) {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.TLSInsecureSkipVerify {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperr.New(apperr.Degraded, "kv.New", fmt.Errorf("redis ping: %w", err))
	}
	return &Store{client: client}, nil
}

// Get returns the cached value and true, or "", false if absent or the
// backend is unreachable; degraded mode is logged, never surfaced.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if s == nil || s.client == nil {
		return "", false
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("kv_get_degraded")
		}
		return "", false
	}
	return val, true
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperr.New(apperr.Degraded, "kv.Set", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching a glob pattern.
func (s *Store) DeletePattern(ctx context.Context, pattern string) error {
	if s == nil || s.client == nil {
		return nil
	}
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Debug().Err(err).Str("key", iter.Val()).Msg("kv_delete_pattern_error")
		}
	}
	return iter.Err()
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
