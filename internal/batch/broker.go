package batch

import "sync"

// subscriberBufferSize is the channel buffer for each event subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// EventBroker streams per-batch lifecycle events to subscribers. It is safe
// for concurrent use.
//
// Closed topics are retained as markers so that late subscribers (those
// subscribing after a batch finalizes) receive a closed channel instead of
// blocking forever. Each marker is a few bytes, which is acceptable for the
// expected transition volume.
type EventBroker struct {
	mu     sync.Mutex
	topics map[string]*eventTopic
}

type eventTopic struct {
	subs   map[int]chan string
	nextID int
	closed bool
}

// NewEventBroker creates a new event broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{
		topics: make(map[string]*eventTopic),
	}
}

// Subscribe returns a channel that receives lifecycle events for the given
// batch and an unsubscribe function. If the batch has already finalized
// (Close was called), the returned channel is immediately closed.
func (b *EventBroker) Subscribe(batchID string) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok {
		t = &eventTopic{subs: make(map[int]chan string)}
		b.topics[batchID] = t
	}

	ch := make(chan string, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish sends an event to all subscribers of the given batch.
// Events are dropped for subscribers whose buffers are full.
func (b *EventBroker) Publish(batchID string, event string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
			// Drop the event for slow subscribers to avoid blocking finalize.
		}
	}
}

// Close signals that no more events will be published for the given batch.
// All subscriber channels are closed and future Subscribe calls return a
// closed channel.
func (b *EventBroker) Close(batchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[batchID]
	if !ok {
		// Create a closed marker so late subscribers get a closed channel.
		b.topics[batchID] = &eventTopic{subs: make(map[int]chan string), closed: true}
		return
	}

	t.closed = true
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}
