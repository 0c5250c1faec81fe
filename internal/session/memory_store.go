package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	sess    Session
	expires time.Time
}

// MemoryStore is a single-process Store for local runs and tests.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]memEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, m: make(map[string]memEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.m, id)
		return Session{}, ErrNotFound
	}
	return e.sess, nil
}

func (s *MemoryStore) Put(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[sess.ID] = memEntry{sess: sess, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Expire(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)
	return nil
}
