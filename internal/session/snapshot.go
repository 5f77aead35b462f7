package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already owns the snapshot file.
var ErrLocked = errors.New("snapshot file is locked by another process")

// SnapshotStore serves sessions from memory and rewrites a JSON snapshot
// file after every mutation. The file is loaded once at open; a lock file
// keeps a second process from writing the same snapshot.
type SnapshotStore struct {
	*MemoryStore

	path string
	lock *flock.Flock

	writeMu sync.Mutex
}

// OpenSnapshot loads path (if it exists) and takes the writer lock.
func OpenSnapshot(path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock snapshot: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	store := &SnapshotStore{MemoryStore: NewMemoryStore(), path: path, lock: lock}
	if err := store.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *SnapshotStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", s.path, err)
	}
	for _, sess := range sessions {
		if sess == nil || sess.Identity == "" {
			continue
		}
		if _, err := ParseStage(string(sess.Stage)); err != nil {
			return fmt.Errorf("snapshot %q: %w", s.path, err)
		}
		s.MemoryStore.sessions[sess.Identity] = sess
	}
	return nil
}

// Save keeps the previous value of the session when the snapshot cannot be
// written, so memory never runs ahead of the file.
func (s *SnapshotStore) Save(_ context.Context, sess *Session) error {
	return s.replace(sess.Identity, sess.Clone())
}

func (s *SnapshotStore) Delete(_ context.Context, identity string) error {
	return s.replace(identity, nil)
}

func (s *SnapshotStore) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	removed := s.MemoryStore.sweep(cutoff)
	if len(removed) == 0 {
		return 0, nil
	}
	if err := s.flush(); err != nil {
		for _, sess := range removed {
			s.MemoryStore.put(sess.Identity, sess)
		}
		return 0, err
	}
	return len(removed), nil
}

// Close writes a final snapshot and releases the lock.
func (s *SnapshotStore) Close() error {
	s.writeMu.Lock()
	flushErr := s.flush()
	s.writeMu.Unlock()
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock snapshot: %w", err)
	}
	return flushErr
}

func (s *SnapshotStore) replace(identity string, sess *Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.MemoryStore.put(identity, sess)
	if err := s.flush(); err != nil {
		s.MemoryStore.put(identity, prev)
		return err
	}
	return nil
}

// flush rewrites the snapshot file. Callers hold writeMu.
func (s *SnapshotStore) flush() error {
	sessions := s.MemoryStore.snapshot()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Identity < sessions[j].Identity })

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
