package cart

import (
	"log"
	"sync"
	"time"
)

// Manager hands out one hydrated Store per browsing context (session
// cookie). Stores share a mirror and a single outbox worker.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store
	dir    string
	mirror Mirror
	outbox *Outbox
}

func NewManager(dir string, mirror Mirror) *Manager {
	return &Manager{
		stores: make(map[string]*Store),
		dir:    dir,
		mirror: mirror,
		outbox: NewOutbox(256, 5*time.Second),
	}
}

// Get returns the store for sessionID, creating and hydrating it on
// first use.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	if s, ok := m.stores[sessionID]; ok {
		m.mu.Unlock()
		return s
	}
	var storage Storage
	if m.dir == "" {
		storage = NewMemoryStorage()
	} else {
		fs, err := NewFileStorage(m.dir, sessionID)
		if err != nil {
			log.Printf("[cart] session storage unavailable, falling back to memory: %v", err)
			storage = NewMemoryStorage()
		} else {
			storage = fs
		}
	}
	s := NewStore(storage, m.mirror, m.outbox)
	m.stores[sessionID] = s
	m.mu.Unlock()

	s.Hydrate()
	return s
}

// Drop forgets the in-memory store for a session (its durable document
// stays untouched unless the store cleared it).
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Close flushes and stops the shared outbox worker.
func (m *Manager) Close() {
	m.outbox.Close()
}
