package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrProfileNotFound indicates no profile exists for the user id.
var ErrProfileNotFound = errors.New("memory: profile not found")

// Store persists per-user profiles. Per-user call ordering is the caller's
// responsibility (the engine serialises turns through UserLocks).
type Store interface {
	Load(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, profile *UserProfile) error
	AppendMessage(ctx context.Context, userID string, rec MessageRecord) error
	UpdateAttributes(ctx context.Context, userID string, delta AttributeDelta) error
}

// UserLocks hands out one mutex per user id so turns stay FIFO per user
// while different users proceed concurrently.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex and returns its release func.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
