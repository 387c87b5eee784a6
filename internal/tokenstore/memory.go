package tokenstore

import "sync"

// MemoryStore keeps credentials for the lifetime of the process
type MemoryStore struct {
	mu    sync.RWMutex
	creds *Credentials
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored credentials
func (m *MemoryStore) Get() (Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil || m.creds.Token == "" {
		return Credentials{}, false
	}
	return *m.creds, true
}

// Set replaces the stored credentials
func (m *MemoryStore) Set(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &c
	return nil
}

// Clear removes the stored credentials
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
