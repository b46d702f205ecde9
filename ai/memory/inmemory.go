package memory

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/hrygo/loconomy/ai/cache"
)

// InMemoryConfig configures InMemoryStore.
type InMemoryConfig struct {
	// MaxUsers caps the number of users kept in memory. When the cap is hit the
	// least recently touched user is dropped. Zero keeps every user for the
	// lifetime of the process.
	MaxUsers int
}

// InMemoryStore keeps memory in process. It is the default store for a
// single-instance deployment.
type InMemoryStore struct {
	mu     sync.Mutex
	users  *cache.LRUCache[string, map[string]any]
	closed bool
}

// NewInMemoryStore creates an in-process store.
func NewInMemoryStore(cfg InMemoryConfig) *InMemoryStore {
	users := cache.NewLRUCache[string, map[string]any](cfg.MaxUsers, 0)
	users.OnEvict(func(userID string, _ map[string]any) {
		slog.Debug("memory: evicted user", "user_id", userID, "max_users", cfg.MaxUsers)
	})
	return &InMemoryStore{users: users}
}

func (s *InMemoryStore) Set(_ context.Context, userID, key string, value any) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	m, ok := s.users.Get(userID)
	if !ok {
		m = make(map[string]any)
		s.users.Set(userID, m)
	}
	m[key] = value
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, userID, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	m, ok := s.users.Get(userID)
	if !ok {
		return nil, false, nil
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *InMemoryStore) GetAll(_ context.Context, userID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	m, ok := s.users.Get(userID)
	if !ok {
		return map[string]any{}, nil
	}
	return maps.Clone(m), nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if m, ok := s.users.Peek(userID); ok {
		delete(m, key)
	}
	return nil
}

// Users returns the number of users currently held.
func (s *InMemoryStore) Users() int {
	return s.users.Len()
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.users.Clear()
	return nil
}
