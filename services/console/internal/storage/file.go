package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileRecord struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FileStore keeps every key in one JSON document. Writes go to a temp file that is
// renamed over the original, so a crash never leaves a half-written session.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func OpenFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return "", err
	}
	rec, ok := records[key]
	if !ok {
		return "", ErrNotFound
	}
	if rec.ExpiresAt != nil && !s.now().Before(*rec.ExpiresAt) {
		delete(records, key)
		if err := s.writeLocked(records); err != nil {
			return "", err
		}
		return "", ErrNotFound
	}
	return rec.Value, nil
}

func (s *FileStore) Save(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}
	rec := fileRecord{Value: value}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		rec.ExpiresAt = &exp
	}
	records[key] = rec
	return s.writeLocked(records)
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readLocked()
	if err != nil {
		return err
	}
	changed := false
	for _, key := range keys {
		if _, ok := records[key]; ok {
			delete(records, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.writeLocked(records)
}

func (s *FileStore) readLocked() (map[string]fileRecord, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	records := map[string]fileRecord{}
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return records, nil
}

func (s *FileStore) writeLocked(records map[string]fileRecord) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
