package cart

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Storage is the durable local store behind a single browsing context,
// the server-side analogue of the browser's cart-storage entry.
type Storage interface {
	Load() ([]Item, error)
	Save(items []Item) error
	Clear() error
}

// FileStorage persists the cart as one JSON document on disk.
type FileStorage struct {
	path string
}

func NewFileStorage(dir, sessionID string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{path: filepath.Join(dir, sessionID+".json")}, nil
}

func (f *FileStorage) Load() ([]Item, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (f *FileStorage) Save(items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage keeps the cart document in memory. Used in tests and as
// a fallback when no data directory is configured.
type MemoryStorage struct {
	data []byte
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

// Seed replaces the stored document with raw bytes, valid JSON or not.
func (m *MemoryStorage) Seed(raw []byte) { m.data = append([]byte(nil), raw...) }

func (m *MemoryStorage) Load() ([]Item, error) {
	if m.data == nil {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(m.data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *MemoryStorage) Save(items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	m.data = raw
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.data = nil
	return nil
}
