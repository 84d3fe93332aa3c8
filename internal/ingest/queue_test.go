package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []MessageEvent
	joins    []MemberJoinEvent
}

func (h *recordingHandler) HandleMessage(ctx context.Context, ev MessageEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, ev)
}

func (h *recordingHandler) HandleMemberJoin(ctx context.Context, ev MemberJoinEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joins = append(h.joins, ev)
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages), len(h.joins)
}

func TestQueueDispatchesByEventType(t *testing.T) {
	handler := &recordingHandler{}
	q := NewQueue(16, 2, handler)
	q.Start(context.Background())

	require.True(t, q.Enqueue(MessageEvent{GuildID: "g1", AuthorID: "u1"}))
	require.True(t, q.Enqueue(MemberJoinEvent{GuildID: "g1", UserID: "u2"}))
	q.Stop()

	msgs, joins := handler.counts()
	assert.Equal(t, 1, msgs)
	assert.Equal(t, 1, joins)
	assert.Zero(t, q.Dropped())
}

func TestQueueDropsWhenFullWithoutBlocking(t *testing.T) {
	handler := &recordingHandler{}
	// No workers started: nothing drains the channel.
	q := NewQueue(2, 1, handler)

	assert.True(t, q.Enqueue(MessageEvent{}))
	assert.True(t, q.Enqueue(MessageEvent{}))

	done := make(chan bool, 1)
	go func() {
		done <- q.Enqueue(MessageEvent{})
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 1.0, q.Saturation())
}

func TestEnqueueAfterStopIsRejected(t *testing.T) {
	handler := &recordingHandler{}
	q := NewQueue(4, 1, handler)
	q.Start(context.Background())
	q.Stop()

	// A gateway callback racing shutdown must be turned away, not panic.
	assert.False(t, q.Enqueue(MessageEvent{GuildID: "g1", AuthorID: "u1"}))

	msgs, _ := handler.counts()
	assert.Zero(t, msgs)
}

func TestStopIsIdempotent(t *testing.T) {
	q := NewQueue(4, 1, &recordingHandler{})
	q.Start(context.Background())
	q.Stop()
	q.Stop()
}

func TestStopDrainsBufferedEvents(t *testing.T) {
	handler := &recordingHandler{}
	q := NewQueue(8, 1, handler)

	for i := 0; i < 5; i++ {
		require.True(t, q.Enqueue(MessageEvent{GuildID: "g1"}))
	}

	// The worker starts against a live ctx and must work off the backlog
	// before Stop returns.
	q.Start(context.Background())
	q.Stop()

	msgs, _ := handler.counts()
	assert.Equal(t, 5, msgs)
}
