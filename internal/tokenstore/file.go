package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/mrcode/diabetes-dashboard/internal/models"
)

// SessionFileName is the file the FileStore writes under the config dir
const SessionFileName = "session.json"

// FileStore keeps credentials in a JSON file next to the settings.
// The file is read once at construction; Get serves the cached copy.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	creds *Credentials
}

// NewFileStore opens the session file in the application config dir
func NewFileStore() (*FileStore, error) {
	dir, err := models.GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return NewFileStoreAt(filepath.Join(dir, SessionFileName)), nil
}

// NewFileStoreAt opens the session file at path.
// A missing or corrupt file is treated as no session.
func NewFileStoreAt(path string) *FileStore {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by the app
	if err != nil {
		return s
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil || c.Token == "" {
		return s
	}
	s.creds = &c
	return s
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the cached credentials
func (s *FileStore) Get() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// Set writes the credentials through to disk
func (s *FileStore) Set(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	s.creds = &c
	return nil
}

// Clear forgets the credentials and removes the file
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
