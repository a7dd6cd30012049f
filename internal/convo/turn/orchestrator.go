// Package turn composes one conversational turn end-to-end: load history,
// route the utterance to a handler, generate the reply, and persist both
// messages durably before the reply is handed to the caller.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mizutani/convo/internal/convo"
	"github.com/mizutani/convo/internal/convo/generate"
	"github.com/mizutani/convo/internal/convo/router"
	"github.com/mizutani/convo/internal/convo/session"
)

// DefaultChunkSize is the target size in bytes of one reply fragment.
const DefaultChunkSize = 24

// Options holds configuration overrides passed to New.
type Options struct {
	// HistoryWindow bounds how many prior messages feed generation.
	// Zero replays the full history.
	HistoryWindow int
	// ChunkSize sets the target fragment size for streamed replies.
	ChunkSize int
	// Logger receives per-turn diagnostics.
	Logger *slog.Logger
}

// Orchestrator runs turns against a session store, a routing table, and a
// reply generator. Turns on different session IDs execute fully concurrently;
// turns on the same ID serialize only at the store's per-session critical
// section. Safe for concurrent use.
type Orchestrator struct {
	store *session.Store
	table router.Table
	gen   generate.Generator

	historyWindow int
	chunkSize     int
	logger        *slog.Logger
}

// New constructs an Orchestrator with optional overrides.
func New(store *session.Store, table router.Table, gen generate.Generator, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		HistoryWindow: 0,
		ChunkSize:     DefaultChunkSize,
		Logger:        slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		store:         store,
		table:         table,
		gen:           gen,
		historyWindow: opts.HistoryWindow,
		chunkSize:     opts.ChunkSize,
		logger:        opts.Logger,
	}
}

// Handle identifies one active conversation. It carries only the session ID:
// history is re-read from the store every turn, never cached, so durable
// state stays the single source of truth across turns and process restarts.
type Handle struct {
	ID string
}

// StartOrResumeSession returns a handle for the given session ID, issuing a
// fresh ID when none is supplied. No durable write happens here; the session
// file is created on the first appended message.
func (o *Orchestrator) StartOrResumeSession(id string) (*Handle, error) {
	if id == "" {
		return &Handle{ID: o.store.NewID()}, nil
	}
	if strings.ContainsAny(id, "/\\") {
		return nil, fmt.Errorf("%w: %q", convo.ErrInvalidSessionID, id)
	}
	return &Handle{ID: id}, nil
}

// SubmitTurn executes one turn: load, route, persist the user utterance,
// generate, persist the reply. The user message is made durable before
// generation runs, so a failed generation never loses the user's input. When
// SubmitTurn returns without error, both messages are durable and the reply
// fragments are ready for consumption.
func (o *Orchestrator) SubmitTurn(ctx context.Context, h *Handle, utterance string) (*Reply, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, convo.ErrEmptyMessage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	turnID := uuid.NewString()
	logger := o.logger.With("session_id", h.ID, "turn_id", turnID)

	// Loading: an absent session is a fresh, empty one (deferred creation).
	// That covers both a never-written ID and a session file removed between
	// listing and this turn.
	history, err := o.store.Load(h.ID)
	if err != nil {
		if !errors.Is(err, convo.ErrSessionNotFound) {
			return nil, err
		}
		history = nil
	}

	// Routing.
	handlerID := o.table.Route(utterance)
	logger.Debug("utterance routed", "handler", string(handlerID), "history_len", len(history))

	// The user's own input lands durably before the slow external call.
	if err := o.store.Append(h.ID, convo.RoleUser, utterance); err != nil {
		return nil, err
	}

	// Generating: the only phase permitted unbounded external latency. A
	// cancellation here aborts the turn cleanly; the user message stays.
	text, err := o.gen.GenerateReply(ctx, string(handlerID), o.window(history), utterance)
	if err != nil {
		logger.Warn("generation failed", "handler", string(handlerID), "error", err)
		return nil, fmt.Errorf("session %q: generating reply: %w", h.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Persisting the assistant reply. On failure the turn is reported
	// failed; the already-durable user message is never rolled back.
	if err := o.store.Append(h.ID, convo.RoleAssistant, text); err != nil {
		logger.Error("assistant append failed after generation", "error", err)
		return nil, err
	}

	logger.Debug("turn complete", "handler", string(handlerID), "reply_len", len(text))
	return newReply(handlerID, text, o.chunkSize), nil
}

// ListSessions returns metadata for all durable sessions, most recent
// activity first.
func (o *Orchestrator) ListSessions() ([]session.Metadata, error) {
	return o.store.List()
}

// Store exposes the underlying session store for callers that need direct
// access (listing paths, file management).
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// window applies the history replay policy: the most recent N messages when
// HistoryWindow is positive, the full history otherwise.
func (o *Orchestrator) window(history []convo.Message) []convo.Message {
	if o.historyWindow <= 0 || len(history) <= o.historyWindow {
		return history
	}
	return history[len(history)-o.historyWindow:]
}
