package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/logging"
)

// MessageEvent is a platform message stripped down to what the pipeline
// needs.
type MessageEvent struct {
	GuildID         string
	ChannelID       string
	AuthorID        string
	AuthorIsBot     bool
	AuthorRoleIDs   []string
	Content         string
	MentionCount    int
	AttachmentCount int
	StickerCount    int
	Timestamp       time.Time
}

// MemberJoinEvent marks a member joining a guild.
type MemberJoinEvent struct {
	GuildID   string
	UserID    string
	Timestamp time.Time
}

type Event interface{ isEvent() }

func (MessageEvent) isEvent()    {}
func (MemberJoinEvent) isEvent() {}

// Handler consumes events off the queue. Implementations may block on
// persistence or actuator calls; the queue just bounds how much is in flight.
type Handler interface {
	HandleMessage(ctx context.Context, ev MessageEvent)
	HandleMemberJoin(ctx context.Context, ev MemberJoinEvent)
}

// Queue is the bounded work queue between the gateway handlers and the
// processing pipeline. Gateway callbacks only enqueue; when the queue is full
// the event is dropped and counted rather than blocking the websocket reader.
type Queue struct {
	events  chan Event
	workers int
	handler Handler
	dropped atomic.Uint64
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewQueue(size, workers int, handler Handler) *Queue {
	if size < 1 {
		size = 1024
	}
	if workers < 1 {
		workers = 4
	}
	return &Queue{
		events:  make(chan Event, size),
		workers: workers,
		handler: handler,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	logging.Info("Event queue started: %d workers, capacity %d", q.workers, cap(q.events))
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-q.events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case MessageEvent:
				q.handler.HandleMessage(ctx, e)
			case MemberJoinEvent:
				q.handler.HandleMemberJoin(ctx, e)
			}
		}
	}
}

// Enqueue offers an event to the queue without blocking. Events arriving
// after Stop are rejected; gateway callbacks can race the shutdown sequence.
func (q *Queue) Enqueue(ev Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.events <- ev:
		return true
	default:
		if n := q.dropped.Add(1); n%1000 == 1 {
			logging.Warn("Event queue full, dropping events (total dropped: %d)", n)
		}
		return false
	}
}

// Stop closes the queue and waits for the workers to drain what is already
// buffered. Safe to call more than once.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Dropped reports how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Saturation reports backlog as a fraction of capacity.
func (q *Queue) Saturation() float64 {
	return float64(len(q.events)) / float64(cap(q.events))
}
