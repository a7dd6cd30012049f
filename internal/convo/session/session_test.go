package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mizutani/convo/internal/convo"
)

func TestLastMessageAt(t *testing.T) {
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	sess := newSession("20260830_100000", created)

	assert.True(t, sess.LastMessageAt().Equal(created), "empty session falls back to CreatedAt")

	later := created.Add(5 * time.Minute)
	sess.appendMessage(convo.RoleUser, "hello", later)
	assert.True(t, sess.LastMessageAt().Equal(later))
}

func TestAppendMessageClampsTimestamps(t *testing.T) {
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	sess := newSession("20260830_100000", created)

	first := created.Add(10 * time.Minute)
	sess.appendMessage(convo.RoleUser, "hello", first)

	// Wall clock stepping backwards must not produce a decreasing timestamp
	sess.appendMessage(convo.RoleAssistant, "hi", first.Add(-time.Minute))

	assert.True(t, sess.Messages[1].Timestamp.Equal(first))
}

func TestMetadata(t *testing.T) {
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	sess := newSession("20260830_100000", created)
	sess.appendMessage(convo.RoleUser, "one", created.Add(time.Minute))
	sess.appendMessage(convo.RoleAssistant, "two", created.Add(2*time.Minute))

	meta := sess.metadata()
	assert.Equal(t, "20260830_100000", meta.ID)
	assert.True(t, meta.CreatedAt.Equal(created))
	assert.True(t, meta.LastMessageAt.Equal(created.Add(2*time.Minute)))
	assert.Equal(t, 2, meta.MessageCount)
}
