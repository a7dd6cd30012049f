package convo

import "errors"

// ErrSessionNotFound indicates no session with the given ID has ever been
// durably written.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCorrupt indicates a session file exists on disk but could not be
// parsed. Corrupt sessions are surfaced, never silently dropped or truncated.
var ErrSessionCorrupt = errors.New("session file corrupt")

// ErrWriteConflict indicates two writers raced on the same session outside
// the per-session critical section. It must not occur when the store's append
// path is used; observing it means a serialization invariant was violated.
var ErrWriteConflict = errors.New("concurrent write conflict")

// ErrEmptyMessage indicates an attempt to record a message with no content.
var ErrEmptyMessage = errors.New("message content is empty")

// ErrInvalidRole indicates a message role outside the known set.
var ErrInvalidRole = errors.New("invalid message role")

// ErrInvalidSessionID indicates a session ID that cannot be used as a
// storage key (empty, or containing path separators).
var ErrInvalidSessionID = errors.New("invalid session id")
