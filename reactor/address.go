package reactor

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// addressHandle is the refcounted object behind every Address. Cloning an
// Address bumps refCount.strong and allocates a new handle; Release (or,
// as a backstop, garbage collection via a finalizer) decrements it and, if
// this was the last strong handle, enqueues the LastAddress sentinel.
//
// Go has no deterministic Drop, so Release is the primary, explicit way to
// give up a strong Address (call it when a Rust caller would simply let
// the Address go out of scope); the finalizer exists only so that an
// Address dropped on the floor without an explicit Release does not wedge
// the actor alive forever.
type addressHandle struct {
	id       uuid.UUID
	mb       *mailbox
	bc       *broadcaster
	ref      *refCount
	released uint32
}

func (h *addressHandle) release() {
	if !atomic.CompareAndSwapUint32(&h.released, 0, 1) {
		return
	}
	runtime.SetFinalizer(h, nil)
	if h.ref.decStrong() == 0 {
		// Best-effort hint; the manager always re-checks the true
		// strong count at dequeue time before actually stopping.
		_ = h.mb.send(context.Background(), mailboxEntry{lastAddress: true})
	}
}

func wrapAddress(h *addressHandle) Address {
	runtime.SetFinalizer(h, func(h *addressHandle) { h.release() })
	return Address{handle: h}
}

// Address is a cheap, cloneable send handle to a running actor. Holding at
// least one strong Address keeps the actor alive; the last one to go away
// (via Release, or garbage collection as a backstop) lets the actor stop.
type Address struct {
	handle *addressHandle
}

// newAddress mints the very first strong Address for a freshly created
// Context, incrementing the refcount.
func newAddress(mb *mailbox, bc *broadcaster, ref *refCount) Address {
	ref.incStrong()
	return wrapAddress(&addressHandle{id: uuid.New(), mb: mb, bc: bc, ref: ref})
}

// Clone returns a new strong Address to the same actor, bumping the
// refcount. The original Address remains valid.
func (a Address) Clone() Address {
	a.handle.ref.incStrong()
	return wrapAddress(&addressHandle{id: uuid.New(), mb: a.handle.mb, bc: a.handle.bc, ref: a.handle.ref})
}

// Release gives up this strong Address. It is safe to call more than once;
// only the first call has any effect. Prefer calling Release explicitly
// over relying on garbage collection: the actor's shutdown is only as
// timely as Release (or the GC finalizer backstop) makes it.
func (a Address) Release() {
	a.handle.release()
}

// Downgrade returns a WeakAddress sharing the same mailbox but
// contributing nothing to the strong refcount.
func (a Address) Downgrade() WeakAddress {
	a.handle.ref.incWeak()
	return WeakAddress{mb: a.handle.mb, bc: a.handle.bc, ref: a.handle.ref}
}

// IsConnected reports whether the actor still has at least one strong
// Address and has not been finally disconnected (by StopAll, by the last
// strong Address being dropped, or by a StopSelf verdict).
func (a Address) IsConnected() bool {
	return !a.handle.ref.isDisconnected() && a.handle.ref.strongCount() > 0
}

// DoSend is a fire-and-forget send: it blocks only long enough to enqueue
// the message (respecting mailbox backpressure), never waiting for the
// handler to run. It returns ErrDisconnected if the actor has already
// terminated.
func (a Address) DoSend(msg any) error {
	return a.handle.mb.send(context.Background(), mailboxEntry{env: &envelope{msg: msg}})
}

// Request is the two-stage future returned by Send: it resolves once the
// message has been accepted into the mailbox; Recv resolves once the
// actor's handler has called Context.Reply. If the handler returns without
// replying, Recv keeps waiting until its ctx is done.
type Request struct {
	reply chan any
}

// Recv awaits the handler's reply, or ctx's cancellation, or the actor
// disconnecting before it could reply.
func (r *Request) Recv(ctx context.Context) (any, error) {
	select {
	case v, ok := <-r.reply:
		if !ok {
			return nil, ErrDisconnected
		}
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send enqueues msg for handling and returns a Request once the message
// has been accepted into the mailbox (the "outer" stage of the two-stage
// future described in spec.md §8). Call Recv on the result to await the
// handler's reply (the "inner" stage).
func (a Address) Send(ctx context.Context, msg any) (*Request, error) {
	reply := make(chan any, 1)
	env := &envelope{msg: msg, reply: reply}
	if err := a.handle.mb.send(ctx, mailboxEntry{env: env}); err != nil {
		return nil, err
	}
	return &Request{reply: reply}, nil
}

// Ask sends msg and blocks until the handler replies, ctx is canceled, or
// the actor disconnects. It is the common case of Send+Recv collapsed into
// one call.
func (a Address) Ask(ctx context.Context, msg any) (any, error) {
	req, err := a.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	return req.Recv(ctx)
}

// String returns a diagnostic identifier for this particular Address handle,
// for use in logs and error messages. It is distinct from the actor_id
// field in watchdog/lifecycle log lines (that id identifies the running
// actor instance; this one identifies the handle — Clone and Upgrade each
// mint their own). It has no bearing on equality, routing, or any other
// runtime behavior.
func (a Address) String() string {
	return a.handle.id.String()
}

// Join blocks until the actor's mailbox has closed, or ctx is canceled.
// stop_all (a StopAll verdict, or the last strong Address being dropped)
// closes the mailbox while stopping, so Join can return before the Stopped
// hook has run and before attached siblings have wound down. When actors
// stop any other way (StopSelf), the mailbox closes only once every
// attached sibling sharing it has terminated.
func (a Address) Join(ctx context.Context) error {
	return a.handle.mb.awaitClose(ctx)
}

// WeakAddress is a non-owning handle: it shares the same mailbox and
// broadcast channel as its Address family but does not keep the actor
// alive. It must be upgraded before it can send anything.
type WeakAddress struct {
	mb  *mailbox
	bc  *broadcaster
	ref *refCount
}

// Upgrade returns a new strong Address if at least one strong Address
// still exists and the actor has not been finally disconnected, or ok ==
// false otherwise.
func (w WeakAddress) Upgrade() (addr Address, ok bool) {
	if !w.ref.upgrade() {
		return Address{}, false
	}
	return wrapAddress(&addressHandle{id: uuid.New(), mb: w.mb, bc: w.bc, ref: w.ref}), true
}

// Release gives up this WeakAddress's claim on the weak refcount. It has
// no effect on whether the actor keeps running; it only lets bookkeeping
// that cares about outstanding weak handles reach zero.
func (w WeakAddress) Release() {
	w.ref.decWeak()
}
