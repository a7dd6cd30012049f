package turn

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizutani/convo/internal/convo"
	"github.com/mizutani/convo/internal/convo/generate"
	"github.com/mizutani/convo/internal/convo/router"
	"github.com/mizutani/convo/internal/convo/session"
)

// stubGenerator is a scriptable Generator recording what it was called with.
type stubGenerator struct {
	reply string
	err   error

	calls       int
	lastHandler string
	lastHistory []convo.Message
}

func (g *stubGenerator) GenerateReply(ctx context.Context, handlerID string, history []convo.Message, utterance string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.calls++
	g.lastHandler = handlerID
	g.lastHistory = history
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testRouterTable() router.Table {
	return router.Table{
		Rules: []router.Rule{
			{Handler: "email", Keywords: []string{"email", "gmail"}},
			{Handler: "tasks", Keywords: []string{"todo"}},
		},
		Default: "general",
	}
}

func newTestOrchestrator(t *testing.T, gen generate.Generator, optFns ...func(o *Options)) (*Orchestrator, *session.Store) {
	t.Helper()
	store := session.New(t.TempDir(), slog.Default())
	return New(store, testRouterTable(), gen, optFns...), store
}

func TestSubmitTurnPersistsBothMessages(t *testing.T) {
	gen := &stubGenerator{reply: "You have two unread messages."}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	reply, err := orch.SubmitTurn(context.Background(), handle, "check my email")
	require.NoError(t, err)
	assert.Equal(t, router.Handler("email"), reply.Handler)
	assert.Equal(t, "You have two unread messages.", reply.Text())

	messages, err := store.Load(handle.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, convo.RoleUser, messages[0].Role)
	assert.Equal(t, "check my email", messages[0].Content)
	assert.Equal(t, convo.RoleAssistant, messages[1].Role)
	assert.Equal(t, reply.Text(), messages[1].Content)
}

func TestReplyChunksReassembleToPersistedText(t *testing.T) {
	gen := &stubGenerator{reply: "I found three tasks due today, the first one is a dentist appointment at noon."}
	orch, store := newTestOrchestrator(t, gen, func(o *Options) { o.ChunkSize = 10 })

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	reply, err := orch.SubmitTurn(context.Background(), handle, "what's due today")
	require.NoError(t, err)

	var sb strings.Builder
	count := 0
	for chunk := range reply.Chunks() {
		sb.WriteString(chunk)
		count++
	}
	assert.Greater(t, count, 1, "reply should be split into multiple fragments")
	assert.Equal(t, reply.Text(), sb.String())

	messages, err := store.Load(handle.ID)
	require.NoError(t, err)
	assert.Equal(t, sb.String(), messages[1].Content)
}

func TestAbandonedConsumptionDoesNotAffectDurability(t *testing.T) {
	gen := &stubGenerator{reply: "A long reply broken into several fragments for streaming."}
	orch, store := newTestOrchestrator(t, gen, func(o *Options) { o.ChunkSize = 8 })

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	reply, err := orch.SubmitTurn(context.Background(), handle, "hello there")
	require.NoError(t, err)

	// Read one fragment and walk away
	<-reply.Chunks()

	messages, err := store.Load(handle.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, gen.reply, messages[1].Content)
}

func TestEmptyUtteranceRejectedBeforeAnyWrite(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	_, err = orch.SubmitTurn(context.Background(), handle, "   ")
	require.ErrorIs(t, err, convo.ErrEmptyMessage)
	assert.False(t, store.Exists(handle.ID))
	assert.Equal(t, 0, gen.calls)
}

func TestGenerationFailureKeepsUserMessage(t *testing.T) {
	tests := []struct {
		name    string
		genErr  error
		checkFn func(error) bool
	}{
		{
			name:    "transient failure",
			genErr:  generate.Transient(errors.New("model overloaded")),
			checkFn: generate.IsTransient,
		},
		{
			name:    "fatal failure",
			genErr:  generate.Fatal(errors.New("request refused")),
			checkFn: generate.IsFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.genErr}
			orch, store := newTestOrchestrator(t, gen)

			handle, err := orch.StartOrResumeSession("")
			require.NoError(t, err)

			_, err = orch.SubmitTurn(context.Background(), handle, "check my email")
			require.Error(t, err)
			assert.True(t, tt.checkFn(err), "failure kind must survive wrapping")
			assert.Contains(t, err.Error(), handle.ID)

			// The user's own input stays durable; no assistant message appears
			messages, loadErr := store.Load(handle.ID)
			require.NoError(t, loadErr)
			require.Len(t, messages, 1)
			assert.Equal(t, convo.RoleUser, messages[0].Role)
			assert.Equal(t, "check my email", messages[0].Content)
		})
	}
}

func TestEmptyReplyFailsTurnAfterUserAppend(t *testing.T) {
	gen := &stubGenerator{reply: ""}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	_, err = orch.SubmitTurn(context.Background(), handle, "hello")
	require.ErrorIs(t, err, convo.ErrEmptyMessage)

	messages, loadErr := store.Load(handle.ID)
	require.NoError(t, loadErr)
	require.Len(t, messages, 1)
	assert.Equal(t, convo.RoleUser, messages[0].Role)
}

func TestCancelledContextAbortsBeforeAnyWrite(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = orch.SubmitTurn(ctx, handle, "hello")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Exists(handle.ID))
}

func TestCancellationDuringGenerationKeepsUserMessage(t *testing.T) {
	orch, store := newTestOrchestrator(t, cancelDuringGeneration{})

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	_, err = orch.SubmitTurn(context.Background(), handle, "hello")
	require.ErrorIs(t, err, context.Canceled)

	messages, loadErr := store.Load(handle.ID)
	require.NoError(t, loadErr)
	require.Len(t, messages, 1)
}

// cancelDuringGeneration simulates the external capability observing a
// cancellation while it runs.
type cancelDuringGeneration struct{}

func (cancelDuringGeneration) GenerateReply(ctx context.Context, handlerID string, history []convo.Message, utterance string) (string, error) {
	return "", context.Canceled
}

func TestHistoryWindowBoundsGenerationContext(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	orch, store := newTestOrchestrator(t, gen, func(o *Options) { o.HistoryWindow = 2 })

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.Append(handle.ID, convo.RoleUser, content))
	}

	_, err = orch.SubmitTurn(context.Background(), handle, "hello")
	require.NoError(t, err)

	require.Len(t, gen.lastHistory, 2)
	assert.Equal(t, "three", gen.lastHistory[0].Content)
	assert.Equal(t, "four", gen.lastHistory[1].Content)
}

func TestFullHistoryReplayedByDefault(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, store.Append(handle.ID, convo.RoleUser, content))
	}

	_, err = orch.SubmitTurn(context.Background(), handle, "hello")
	require.NoError(t, err)
	assert.Len(t, gen.lastHistory, 3)
}

func TestResumeRereadsDurableState(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{reply: "first reply"}
	first := New(session.New(dir, slog.Default()), testRouterTable(), gen)

	handle, err := first.StartOrResumeSession("")
	require.NoError(t, err)
	_, err = first.SubmitTurn(context.Background(), handle, "check my email")
	require.NoError(t, err)

	// A second orchestrator over the same directory stands in for a process
	// restart; it must see the first turn through durable state alone.
	gen2 := &stubGenerator{reply: "second reply"}
	second := New(session.New(dir, slog.Default()), testRouterTable(), gen2)

	resumed, err := second.StartOrResumeSession(handle.ID)
	require.NoError(t, err)
	_, err = second.SubmitTurn(context.Background(), resumed, "and my todos?")
	require.NoError(t, err)

	require.Len(t, gen2.lastHistory, 2)
	assert.Equal(t, "check my email", gen2.lastHistory[0].Content)
	assert.Equal(t, "first reply", gen2.lastHistory[1].Content)
}

func TestSessionRemovedBetweenTurnsStartsFresh(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	orch, store := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)
	_, err = orch.SubmitTurn(context.Background(), handle, "check my email")
	require.NoError(t, err)

	// The session file vanishing under a live handle (cleared by another
	// process, say) must not fail the next turn; it proceeds as a fresh,
	// empty session under the same ID.
	require.NoError(t, store.Remove(handle.ID))

	reply, err := orch.SubmitTurn(context.Background(), handle, "any todos?")
	require.NoError(t, err)
	assert.Equal(t, router.Handler("tasks"), reply.Handler)
	assert.Empty(t, gen.lastHistory)

	messages, err := store.Load(handle.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "any todos?", messages[0].Content)
}

func TestStartOrResumeSession(t *testing.T) {
	orch, _ := newTestOrchestrator(t, &stubGenerator{reply: "ok"})

	fresh, err := orch.StartOrResumeSession("")
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.ID)

	resumed, err := orch.StartOrResumeSession("20260830_100000")
	require.NoError(t, err)
	assert.Equal(t, "20260830_100000", resumed.ID)

	_, err = orch.StartOrResumeSession("../escape")
	require.ErrorIs(t, err, convo.ErrInvalidSessionID)
}

func TestListSessions(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	orch, _ := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)
	_, err = orch.SubmitTurn(context.Background(), handle, "hello")
	require.NoError(t, err)

	sessions, err := orch.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, handle.ID, sessions[0].ID)
	assert.Equal(t, 2, sessions[0].MessageCount)
}

func TestRoutingUsesTablePriority(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	orch, _ := newTestOrchestrator(t, gen)

	handle, err := orch.StartOrResumeSession("")
	require.NoError(t, err)

	// "email" appears before "todo" in the table, so an utterance with both
	// routes to email
	reply, err := orch.SubmitTurn(context.Background(), handle, "email me my todo list")
	require.NoError(t, err)
	assert.Equal(t, router.Handler("email"), reply.Handler)
	assert.Equal(t, "email", gen.lastHandler)
}
