package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry pairs an envelope with its absolute expiry.
type memoryEntry struct {
	env       Envelope
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryHotStore is an in-process hot tier for local development and tests.
type MemoryHotStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryHotStore creates a MemoryHotStore with a background janitor.
func NewMemoryHotStore() *MemoryHotStore {
	s := &MemoryHotStore{
		items: make(map[string]memoryEntry),
		stop:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryHotStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for subject, entry := range s.items {
				if entry.expired(now) {
					delete(s.items, subject)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// Close stops the janitor goroutine.
func (s *MemoryHotStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryHotStore) Get(ctx context.Context, subject string) (*Envelope, error) {
	s.mu.RLock()
	entry, ok := s.items[subject]
	s.mu.RUnlock()
	if !ok || entry.expired(time.Now()) {
		return nil, nil
	}
	env := entry.env
	return &env, nil
}

func (s *MemoryHotStore) Set(ctx context.Context, env *Envelope, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[env.Subject] = memoryEntry{env: *env, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryHotStore) Delete(ctx context.Context, subject string) error {
	s.mu.Lock()
	delete(s.items, subject)
	s.mu.Unlock()
	return nil
}

func (s *MemoryHotStore) Exists(ctx context.Context, subject string) (bool, error) {
	s.mu.RLock()
	entry, ok := s.items[subject]
	s.mu.RUnlock()
	return ok && !entry.expired(time.Now()), nil
}

func (s *MemoryHotStore) Count(ctx context.Context) (int, error) {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, entry := range s.items {
		if !entry.expired(now) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryHotStore) Ping(ctx context.Context) error { return nil }

// MemoryColdStore is an in-process cold tier for local development and
// tests. It applies the same lazy read expiry as the DynamoDB store.
type MemoryColdStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

// NewMemoryColdStore creates a MemoryColdStore.
func NewMemoryColdStore() *MemoryColdStore {
	return &MemoryColdStore{items: make(map[string]memoryEntry)}
}

func (s *MemoryColdStore) Get(ctx context.Context, subject string) (*Envelope, error) {
	s.mu.RLock()
	entry, ok := s.items[subject]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if entry.expired(time.Now()) {
		s.mu.Lock()
		delete(s.items, subject)
		s.mu.Unlock()
		return nil, nil
	}
	env := entry.env
	return &env, nil
}

func (s *MemoryColdStore) Put(ctx context.Context, env *Envelope, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[env.Subject] = memoryEntry{env: *env, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryColdStore) Delete(ctx context.Context, subject string) error {
	s.mu.Lock()
	delete(s.items, subject)
	s.mu.Unlock()
	return nil
}

func (s *MemoryColdStore) ListSubjects(ctx context.Context) ([]SubjectRef, error) {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	subjects := make([]SubjectRef, 0, len(s.items))
	for subject, entry := range s.items {
		if !entry.expired(now) {
			subjects = append(subjects, SubjectRef{Subject: subject, LastUpdated: entry.env.CachedAt / 1000})
		}
	}
	return subjects, nil
}

func (s *MemoryColdStore) Ping(ctx context.Context) error { return nil }
