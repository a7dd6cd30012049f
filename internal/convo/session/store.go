// Package session provides durable, crash-safe persistence of conversation
// sessions as one JSON file per session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mizutani/convo/internal/convo"
)

// idFormat is the human-sortable session ID layout: YYYYMMDD_HHMMSS.
const idFormat = "20060102_150405"

// Store persists sessions under a single directory. Appends to the same
// session serialize on a per-session mutex; unrelated sessions never block
// each other. All writes go through a temp-file-then-rename cycle so a crash
// mid-write leaves either the old version or the new one, never a torn file.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex // guards locks, lastIDBase, lastIDSeq
	locks map[string]*sync.Mutex

	lastIDBase string
	lastIDSeq  int
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Dir returns the directory sessions are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path backing the given session ID.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// NewID generates a unique session ID from the current wall clock. If the
// clock has not advanced past the last issued ID's second, whether stalled
// on the same second or stepped backwards, a monotonically increasing suffix
// off the last issued base breaks the collision (20260831_142501,
// 20260831_142501_2, ...). The format is lexically ordered, so a plain
// string comparison detects a non-advancing clock.
func (s *Store) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := time.Now().Format(idFormat)
	if base <= s.lastIDBase {
		s.lastIDSeq++
		return fmt.Sprintf("%s_%d", s.lastIDBase, s.lastIDSeq)
	}
	s.lastIDBase = base
	s.lastIDSeq = 1
	return base
}

// Exists reports whether a session with the given ID has been durably
// written, without loading its content.
func (s *Store) Exists(id string) bool {
	if validateID(id) != nil {
		return false
	}
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Append records one message on the session, creating the session on first
// use. The read-modify-write cycle runs under the session's lock, so
// concurrent appends to the same ID serialize while appends to different IDs
// proceed in parallel. When Append returns nil the message is durable.
func (s *Store) Append(id string, role convo.Role, content string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("session %q: %w: %q", id, convo.ErrInvalidRole, role)
	}
	if content == "" {
		return fmt.Errorf("session %q: %w", id, convo.ErrEmptyMessage)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	sess, err := s.read(id)
	switch {
	case errors.Is(err, convo.ErrSessionNotFound):
		sess = newSession(id, now)
	case err != nil:
		return err
	}

	sess.appendMessage(role, content, now)
	if err := s.write(sess); err != nil {
		return err
	}

	s.logger.Debug("message appended",
		"session_id", id,
		"role", string(role),
		"message_count", sess.MessageCount(),
	)
	return nil
}

// Load returns the full ordered message list for a session. A session that
// was never written yields ErrSessionNotFound; a present but unparsable file
// yields ErrSessionCorrupt.
func (s *Store) Load(id string) ([]convo.Message, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	sess, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

// List scans all durable sessions and returns their metadata sorted by last
// activity, most recent first, ties broken by ID descending. Message bodies
// are not part of the result. Unparsable files are skipped with a warning;
// Load still reports them as corrupt.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var sessions []Metadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		sess, err := s.read(id)
		if err != nil {
			s.logger.Warn("skipping unreadable session file", "file", entry.Name(), "error", err)
			continue
		}
		sessions = append(sessions, sess.metadata())
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].LastMessageAt.Equal(sessions[j].LastMessageAt) {
			return sessions[i].LastMessageAt.After(sessions[j].LastMessageAt)
		}
		return sessions[i].ID > sessions[j].ID
	})
	return sessions, nil
}

// Remove deletes a session file. This is a file-management helper for the
// CLI, not a core conversation operation; callers racing a Remove observe
// ErrSessionNotFound on their next Load.
func (s *Store) Remove(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("session %q: %w", id, convo.ErrSessionNotFound)
		}
		return fmt.Errorf("session %q: deleting session file: %w", id, err)
	}
	return nil
}

// lockFor returns the mutex serializing writes for one session ID.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// read loads and parses a session file.
func (s *Store) read(id string) (*Session, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session %q: %w", id, convo.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("session %q: reading session file: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session %q: %w: %v", id, convo.ErrSessionCorrupt, err)
	}
	return &sess, nil
}

// write persists a session atomically: serialize to a temp file in the same
// directory, then rename over the target. A partially written temp file is
// never observable as the session.
func (s *Store) write(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session %q: serializing session: %w", sess.SessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, sess.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("session %q: creating temp file: %w", sess.SessionID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("session %q: writing temp file: %w", sess.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session %q: closing temp file: %w", sess.SessionID, err)
	}

	if err := os.Rename(tmpName, s.Path(sess.SessionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("session %q: replacing session file: %w", sess.SessionID, err)
	}
	return nil
}

// validateID rejects IDs that cannot serve as storage keys.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", convo.ErrInvalidSessionID, id)
	}
	return nil
}
