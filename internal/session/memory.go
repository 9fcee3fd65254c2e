package session

import (
	"context"
	"sync"
	"time"

	"github.com/iyann1255/daftaren/entity"
)

const defaultTTL = 30 * time.Minute

type memoryEntry struct {
	session   entity.Session
	expiresAt time.Time
}

// Memory is a process-local session store with lazy expiry.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

func (m *Memory) Get(_ context.Context, userId int64) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[userId]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, userId)
		return nil, nil
	}
	s := entry.session
	return &s, nil
}

// Put stores a copy of the session and restarts its expiry. Expired entries
// of other users are swept on the way.
func (m *Memory) Put(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.entries[s.UserId] = memoryEntry{
		session:   *s,
		expiresAt: now.Add(m.ttl),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, userId int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userId)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
