package reactor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

// envelope is the type-erased carrier of one message plus an optional
// reply slot. It mirrors spec.md's two envelope shapes: a non-nil reply
// channel makes it a "returning" envelope (the handler's result, if any,
// is offered on reply via Context.Reply); a nil reply makes it
// "non-returning" (used by DoSend, Notify, NotifyAll and timer
// notifications).
type envelope struct {
	msg   any
	reply chan any
}

// mailboxEntry is one slot in the point-to-point channel from addresses to
// the actor: either a message envelope, or the LastAddress sentinel an
// Address enqueues when it believes it is the last strong handle being
// dropped.
type mailboxEntry struct {
	env         *envelope
	lastAddress bool
}

// mailbox is a bounded or unbounded, multi-producer FIFO of mailboxEntry.
// Bounded mailboxes are a plain buffered channel, which gives backpressure
// for free. Unbounded mailboxes forward through an internal goroutine
// backed by a gammazero/deque ring buffer (the same structure
// markInTheAbyss-go-actor's mailboxWorker uses for its unbounded queue),
// since a native Go channel cannot itself have unlimited capacity.
type mailbox struct {
	sendC  chan mailboxEntry
	recvC  <-chan mailboxEntry
	closed chan struct{}

	// users counts how many Contexts (the original plus every Attach
	// sibling) still consider this mailbox theirs. A shared mailbox is
	// only actually closed once every user has terminated, or
	// immediately on stopAll; otherwise one attached actor's ordinary
	// StopSelf would slam the mailbox shut on its still-running
	// siblings.
	users int32

	// bounded is true only for a capacity-limited mailbox; only those can
	// meaningfully backpressure a sender, so only those log a warning
	// when send has to wait.
	bounded bool
	logger  *zap.Logger
}

// newMailbox creates a mailbox. capacity <= 0 means unbounded. logger may
// be nil, in which case backpressure warnings are dropped.
func newMailbox(capacity int, logger *zap.Logger) *mailbox {
	if logger == nil {
		logger = newNopLogger()
	}
	closed := make(chan struct{})
	if capacity > 0 {
		c := make(chan mailboxEntry, capacity)
		return &mailbox{sendC: c, recvC: c, closed: closed, users: 1, bounded: true, logger: logger}
	}

	send, recv, stop := newUnboundedPipe[mailboxEntry]()
	mb := &mailbox{sendC: send, recvC: recv, closed: closed, users: 1, logger: logger}
	go func() {
		<-closed
		stop()
	}()
	return mb
}

// addUser registers another Context (an Attach sibling) as sharing this
// mailbox, so its eventual termination alone does not close it.
func (m *mailbox) addUser() {
	atomic.AddInt32(&m.users, 1)
}

// removeUser unregisters one Context from this mailbox. The mailbox is
// only actually closed once the last user has removed itself.
func (m *mailbox) removeUser() {
	if atomic.AddInt32(&m.users, -1) <= 0 {
		m.close()
	}
}

// send blocks until the entry is accepted into the queue (backpressure
// when bounded and full), the context is canceled, or the mailbox has
// been closed.
func (m *mailbox) send(ctx context.Context, e mailboxEntry) error {
	select {
	case <-m.closed:
		return ErrDisconnected
	default:
	}

	if m.bounded {
		select {
		case m.sendC <- e:
			return nil
		default:
			m.logger.Warn("mailbox full, sender backpressured", zap.Int("capacity", cap(m.sendC)))
		}
	}

	select {
	case m.sendC <- e:
		return nil
	case <-m.closed:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recvChan exposes the receive side for the manager's select loop.
func (m *mailbox) recvChan() <-chan mailboxEntry {
	return m.recvC
}

// close stops the mailbox: further sends fail with ErrDisconnected.
func (m *mailbox) close() {
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
}

// awaitClose blocks until the mailbox has been closed (the actor
// terminated) or ctx is canceled. It backs Address.Join.
func (m *mailbox) awaitClose(ctx context.Context) error {
	select {
	case <-m.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain discards any entries currently queued, used by stop_all so that
// producers blocked on a full bounded mailbox unblock promptly instead of
// waiting out their context. Any discarded entry's reply channel is closed
// rather than silently dropped: spec.md's Disconnected error explicitly
// covers "a reply slot whose actor terminated before handling", and a
// closed reply channel is exactly what turns a blocked Request.Recv into
// ErrDisconnected instead of a permanent hang.
func (m *mailbox) drain() {
	for {
		select {
		case e := <-m.recvC:
			if e.env != nil && e.env.reply != nil {
				close(e.env.reply)
			}
		default:
			return
		}
	}
}

// newUnboundedPipe returns a send/receive channel pair backed by an
// internal forwarding goroutine and an unbounded deque, plus a function to
// stop the goroutine and close the receive side. It underlies both the
// unbounded mailbox and each broadcast subscriber's queue.
func newUnboundedPipe[T any]() (send chan<- T, recv <-chan T, stopFn func()) {
	sendC := make(chan T)
	recvC := make(chan T)
	stop := make(chan struct{})
	var closeOnce sync.Once

	go func() {
		var q deque.Deque[T]
		for {
			if q.Len() == 0 {
				select {
				case v, ok := <-sendC:
					if !ok {
						close(recvC)
						return
					}
					q.PushBack(v)
				case <-stop:
					close(recvC)
					return
				}
				continue
			}

			select {
			case recvC <- q.Front():
				q.PopFront()
			case v, ok := <-sendC:
				if !ok {
					for q.Len() > 0 {
						recvC <- q.PopFront()
					}
					close(recvC)
					return
				}
				q.PushBack(v)
			case <-stop:
				close(recvC)
				return
			}
		}
	}()

	return sendC, recvC, func() { closeOnce.Do(func() { close(stop) }) }
}
