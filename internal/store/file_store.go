package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

const sessionFileName = "session.json"

// FileStore persists key-value pairs in a single JSON file under a base
// directory, mirroring browser local storage on a developer machine.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore ensures the base directory exists and returns a handle.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = ".smadash"
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{path: filepath.Join(baseDir, sessionFileName)}, nil
}

// Get returns the stored value or ErrKeyNotFound.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set writes the value, creating the file on first use.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		// A corrupted file must not block new logins; start over.
		data = map[string]string{}
	}
	data[key] = value
	return s.save(data)
}

// Delete removes the key if present.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		data = map[string]string{}
	}
	delete(data, key)
	return s.save(data)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.KindStorage, "READ_SESSION_FILE", 0, "failed to read session file")
	}
	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCorruptedState.Kind, apperrors.ErrCorruptedState.Code, 0, "session file is not valid JSON")
	}
	return data, nil
}

func (s *FileStore) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindStorage, "ENCODE_SESSION_FILE", 0, "failed to encode session data")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return apperrors.Wrap(err, apperrors.KindStorage, "WRITE_SESSION_FILE", 0, "failed to write session file")
	}
	return nil
}
