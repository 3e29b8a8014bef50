package realtime

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrFeedClosed is returned when publishing to or subscribing on a closed feed.
var ErrFeedClosed = errors.New("realtime: feed closed")

const subscriberBuffer = 64

// MemoryFeed fans events out to in-process subscribers.
// Publish never waits on a reader: a subscriber whose buffer is full is dropped and
// its channel closed, so it must resubscribe and resync from a fresh snapshot.
type MemoryFeed struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewMemoryFeed constructs an empty MemoryFeed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[int]chan Event)}
}

// Publish implements Publisher.
func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFeedClosed
	}
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			delete(f.subs, id)
			close(ch)
			log.WithField("subscriber", id).Warn("realtime: dropped slow subscriber")
		}
	}
	return nil
}

// Subscribe implements Subscriber. The channel is closed when ctx ends, the feed
// closes or the subscriber falls a full buffer behind.
func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan Event, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFeedClosed
	}
	id := f.nextID
	f.nextID++
	ch := make(chan Event, subscriberBuffer)
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.unsubscribe(id)
	}()
	return ch, nil
}

func (f *MemoryFeed) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Close detaches every subscriber.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
	return nil
}
