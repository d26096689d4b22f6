package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// FileStore keeps one JSON file per user under a data directory, fronted by
// an in-memory write-through cache. Disk failures degrade to cache-only for
// the current turn after the retry budget is spent; the turn still
// completes.
type FileStore struct {
	dir    string
	logger *logging.Logger

	mu    sync.RWMutex
	cache map[string]*UserProfile

	maxAttempts int
	baseDelay   time.Duration
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("memory: data directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}
	return &FileStore{
		dir:         dir,
		logger:      logger,
		cache:       make(map[string]*UserProfile),
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
	}, nil
}

// Load returns the cached profile or reads it from disk.
func (s *FileStore) Load(ctx context.Context, userID string) (*UserProfile, error) {
	s.mu.RLock()
	cached, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	var data []byte
	err := s.withRetry(ctx, func() error {
		var readErr error
		data, readErr = os.ReadFile(s.path(userID))
		return readErr
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("memory: read profile %s: %w", userID, err)
	}

	var profile UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("memory: decode profile %s: %w", userID, err)
	}

	s.mu.Lock()
	s.cache[userID] = profile.Clone()
	s.mu.Unlock()
	return &profile, nil
}

// Save caches the profile and mirrors it to disk. A disk failure after
// retries is logged and swallowed so the turn can finish on the cache.
func (s *FileStore) Save(ctx context.Context, profile *UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("memory: profile with user id required")
	}

	s.mu.Lock()
	s.cache[profile.UserID] = profile.Clone()
	s.mu.Unlock()

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: encode profile %s: %w", profile.UserID, err)
	}

	err = s.withRetry(ctx, func() error {
		tmp := s.path(profile.UserID) + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, s.path(profile.UserID))
	})
	if err != nil {
		s.logger.Warn("profile persisted to cache only, disk write failed",
			"user_id", profile.UserID, "error", err)
	}
	return nil
}

// AppendMessage loads, appends (with truncation), and saves.
func (s *FileStore) AppendMessage(ctx context.Context, userID string, rec MessageRecord) error {
	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	profile.AppendLog(rec)
	return s.Save(ctx, profile)
}

// UpdateAttributes merges an idempotent delta into the stored profile.
func (s *FileStore) UpdateAttributes(ctx context.Context, userID string, delta AttributeDelta) error {
	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	profile.ApplyDelta(delta)
	return s.Save(ctx, profile)
}

func (s *FileStore) path(userID string) string {
	// User ids come from the messenger and may not be path-safe.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, userID)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) withRetry(ctx context.Context, fn func() error) error {
	delay := s.baseDelay
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := fn()
		if err == nil || os.IsNotExist(err) {
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
