package session

import (
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one JSON file per key in a shared directory, typically
// under the system temp dir so state survives across hook invocations but
// not reboots.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &StateStoreError{Key: dir, Err: err}
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir is the shared session-state location used by hook invocations.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "railguard-sessions")
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, &StateStoreError{Key: key, Err: err}
	}
	return data, true, nil
}

func (s *FileStore) Put(key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return &StateStoreError{Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return &StateStoreError{Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitize(key)+".json")
}

// sanitize keeps session-derived keys from escaping the state directory.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, key)
}
