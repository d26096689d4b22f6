package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// RedisStore persists profiles in Redis, fronted by an in-memory
// write-through cache. Backend failures degrade to cache-only for the
// current turn after the retry budget is spent; the turn still completes.
// Profiles carry no TTL here; an external retention policy decides expiry.
type RedisStore struct {
	redis  *redis.Client
	logger *logging.Logger
	tracer trace.Tracer

	mu    sync.RWMutex
	cache map[string]*UserProfile

	maxAttempts int
	baseDelay   time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("memory: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		redis:       client,
		logger:      logger,
		tracer:      otel.Tracer("brenda.internal.memory.redis"),
		cache:       make(map[string]*UserProfile),
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
	}
}

func profileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// Load returns the cached profile or fetches and decodes it from Redis.
func (s *RedisStore) Load(ctx context.Context, userID string) (*UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "memory.load_profile")
	defer span.End()

	s.mu.RLock()
	cached, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	var data []byte
	err := s.withRetry(ctx, func() error {
		var getErr error
		data, getErr = s.redis.Get(ctx, profileKey(userID)).Bytes()
		return getErr
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProfileNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("memory: load profile %s: %w", userID, err)
	}

	var profile UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("memory: decode profile %s: %w", userID, err)
	}

	s.mu.Lock()
	s.cache[userID] = profile.Clone()
	s.mu.Unlock()
	return &profile, nil
}

// Save caches the profile and mirrors it to Redis. A backend failure
// after retries is logged and swallowed so the turn can finish on the
// cache.
func (s *RedisStore) Save(ctx context.Context, profile *UserProfile) error {
	ctx, span := s.tracer.Start(ctx, "memory.save_profile")
	defer span.End()

	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("memory: profile with user id required")
	}

	s.mu.Lock()
	s.cache[profile.UserID] = profile.Clone()
	s.mu.Unlock()

	data, err := json.Marshal(profile)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: encode profile %s: %w", profile.UserID, err)
	}

	err = s.withRetry(ctx, func() error {
		return s.redis.Set(ctx, profileKey(profile.UserID), data, 0).Err()
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("profile persisted to cache only, redis write failed",
			"user_id", profile.UserID, "error", err)
	}
	return nil
}

// AppendMessage loads, appends (with truncation), and saves.
func (s *RedisStore) AppendMessage(ctx context.Context, userID string, rec MessageRecord) error {
	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	profile.AppendLog(rec)
	return s.Save(ctx, profile)
}

// UpdateAttributes merges an idempotent delta into the stored profile.
func (s *RedisStore) UpdateAttributes(ctx context.Context, userID string, delta AttributeDelta) error {
	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	profile.ApplyDelta(delta)
	return s.Save(ctx, profile)
}

func (s *RedisStore) withRetry(ctx context.Context, fn func() error) error {
	delay := s.baseDelay
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		lastErr = err
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
