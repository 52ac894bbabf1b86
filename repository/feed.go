package repository

import (
	"sync"

	"github.com/google/uuid"
)

// Op names the kind of mutation a Change describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is published on the feed after a mutation is durable.
// It carries just enough for a subscriber to re-derive its view; for
// bulk mutations (logout all/others) ProfileID is the zero UUID.
type Change struct {
	Op        Op
	ProfileID uuid.UUID
}

// ChangeFeed is a publish-on-write registry of subscriber channels.
// Publishing never blocks: a subscriber whose buffer is full misses that
// change and catches up on the next one, since subscribers re-query
// rather than replay.
type ChangeFeed struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// NewChangeFeed creates an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[int]chan Change)}
}

// Subscribe registers a channel with the given buffer size and returns it
// along with a cancel function. Cancel closes the channel.
func (f *ChangeFeed) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a change to every subscriber without blocking.
func (f *ChangeFeed) Publish(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
