package reactor

import (
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lifecycleState is the actor's place in the finite state machine from
// spec.md §3: Running -> Stopping -> Stopped, with Stopping able to
// resurrect back to Running via KeepRunning == Yes.
type lifecycleState int32

const (
	stateRunning lifecycleState = iota
	stateStopping
	stateStopped
)

// defaultWatchdogInterval is how often the slow-handler watchdog warns
// about a handler that has not yet returned. The source this runtime is
// descended from uses a literal 10-second tick; spec.md §9 flags this as
// an open question ("surface as configuration"), so it is exposed via
// WithWatchdogInterval / reactorconfig.Config instead of being hardcoded.
const defaultWatchdogInterval = 10 * time.Second

// Context is the per-actor handle passed to every lifecycle hook and
// message handler. It is the thing that actually runs the manage loop
// (Run, Attach) and exposes the operations described in spec.md §4.4.
type Context struct {
	mb      *mailbox
	bc      *broadcaster
	bcSubID int
	bcRecv  <-chan broadcastEntry

	// ref is shared by every Context/Address/WeakAddress in the same
	// address family. The Context itself never holds a strong reference
	// through it — Address() upgrades on demand, matching spec.md's "a
	// weak refcount (so the Context alone does not keep the actor
	// alive)".
	ref *refCount

	// selfNotify is the self-notification stack: pushed with PushBack,
	// popped LIFO with PopBack, see handleSelfNotifications. Backed by a
	// gammazero/deque rather than a plain slice so repeated push/pop does
	// not re-grow/re-slice a backing array, the same structure the
	// mailbox and broadcast queues use for their own buffering.
	selfNotify deque.Deque[*envelope]
	state      lifecycleState

	// drop fires once this Context's manage loop has returned, canceling
	// any NotifyAfter/NotifyInterval timer tasks it spawned.
	drop *dropNotifier

	logger        *zap.Logger
	spawner       Spawner
	timer         Timer
	watchdogEvery time.Duration
	instanceID    uuid.UUID

	// currentMsg/currentReply describe the envelope presently being
	// handled, for Message()/Reply() to consult from inside Receive.
	currentMsg   any
	currentReply chan any
}

// Option configures a Context created by New.
type Option func(*contextOptions)

type contextOptions struct {
	logger        *zap.Logger
	spawner       Spawner
	timer         Timer
	watchdogEvery time.Duration
}

func defaultContextOptions() contextOptions {
	return contextOptions{
		logger:        newNopLogger(),
		spawner:       GoroutineSpawner{},
		timer:         DefaultTimer,
		watchdogEvery: defaultWatchdogInterval,
	}
}

// WithLogger attaches a structured logger for lifecycle and watchdog
// diagnostics. Without this option, logging is a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(o *contextOptions) { o.logger = l }
}

// WithSpawner overrides the host scheduler adapter used for attached
// actors and timer tasks. Defaults to GoroutineSpawner.
func WithSpawner(s Spawner) Option {
	return func(o *contextOptions) { o.spawner = s }
}

// WithTimer overrides the delay primitive used by NotifyAfter and
// NotifyInterval. Defaults to DefaultTimer (time.After).
func WithTimer(t Timer) Option {
	return func(o *contextOptions) { o.timer = t }
}

// WithWatchdogInterval overrides how often the slow-handler watchdog
// warns about a still-running handler. Defaults to 10 seconds.
func WithWatchdogInterval(d time.Duration) Option {
	return func(o *contextOptions) { o.watchdogEvery = d }
}

// New creates a fresh actor context, returning the first strong Address
// and the Context whose Run method drives the actor's lifecycle.
// capacity <= 0 gives an unbounded mailbox; capacity > 0 gives a bounded
// one of that size.
func New(capacity int, opts ...Option) (Address, *Context) {
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mb := newMailbox(capacity, o.logger)
	bc := newBroadcaster()
	ref := newRefCount()
	addr := newAddress(mb, bc, ref)

	subID, bcRecv := bc.subscribe()

	ctx := &Context{
		mb:            mb,
		bc:            bc,
		bcSubID:       subID,
		bcRecv:        bcRecv,
		ref:           ref,
		state:         stateRunning,
		drop:          newDropNotifier(),
		logger:        o.logger,
		spawner:       o.spawner,
		timer:         o.timer,
		watchdogEvery: o.watchdogEvery,
		instanceID:    uuid.New(),
	}
	return addr, ctx
}

// sibling builds a Context sharing this one's mailbox, broadcaster and
// refcount, but with its own broadcast subscription, self-notification
// buffer, lifecycle state and DropNotifier. It backs Attach.
func (ctx *Context) sibling() *Context {
	subID, bcRecv := ctx.bc.subscribe()
	ctx.mb.addUser()
	return &Context{
		mb:            ctx.mb,
		bc:            ctx.bc,
		bcSubID:       subID,
		bcRecv:        bcRecv,
		ref:           ctx.ref,
		state:         stateRunning,
		drop:          newDropNotifier(),
		logger:        ctx.logger,
		spawner:       ctx.spawner,
		timer:         ctx.timer,
		watchdogEvery: ctx.watchdogEvery,
		instanceID:    uuid.New(),
	}
}

// Message returns the message currently being handled. It is only
// meaningful from inside Actor.Receive.
func (ctx *Context) Message() any {
	return ctx.currentMsg
}

// Reply offers v to the reply slot of the message currently being
// handled, if the send that produced it was a Send (rather than a
// DoSend/Notify). It is a no-op for non-returning messages, and a no-op
// if called more than once or if nobody is left to receive it.
func (ctx *Context) Reply(v any) {
	if ctx.currentReply == nil {
		return
	}
	select {
	case ctx.currentReply <- v:
	default:
	}
}

// Address returns a new strong Address to the actor, or ErrActorShutdown
// if no strong Address exists any more or the actor is finally
// disconnected.
func (ctx *Context) Address() (Address, error) {
	if !ctx.ref.upgrade() {
		return Address{}, ErrActorShutdown
	}
	return wrapAddress(&addressHandle{id: uuid.New(), mb: ctx.mb, bc: ctx.bc, ref: ctx.ref}), nil
}

// Stop requests the actor to stop as soon as it finishes the message (and
// any self-notifications) it is currently processing. The actual decision
// to stop is arbitrated by Stopper.Stopping at the next lifecycle check.
func (ctx *Context) Stop() {
	ctx.state = stateStopping
}

// Notify queues msg as a self-notification: it is handled before the next
// mailbox or broadcast message, ahead of ordinary external traffic.
// Self-notifications queued within one handler's execution are drained in
// LIFO order relative to each other (spec.md §9 flags the order as an
// open question; this runtime follows the originating implementation's
// Vec::pop() behavior).
func (ctx *Context) Notify(msg any) {
	ctx.selfNotify.PushBack(&envelope{msg: msg})
}

// NotifyAll broadcasts msg to every actor attached to this address
// (including this one). It does not take priority over ordinary mailbox
// traffic; see the anti-starvation rule in Context.Run.
func (ctx *Context) NotifyAll(msg any) {
	ctx.bc.publish(broadcastEntry{env: &envelope{msg: msg}})
}

// NotifyAfter spawns a timer task that, after d elapses, does the
// equivalent of addr.DoSend(msg) against this actor's own address. The
// task is canceled if the Context terminates first. Returns
// ErrActorShutdown if no strong Address can currently be minted.
func (ctx *Context) NotifyAfter(d time.Duration, msg any) error {
	addr, err := ctx.Address()
	if err != nil {
		return err
	}
	delay := ctx.timer.Delay(d)
	drop := ctx.drop
	ctx.spawner.Spawn(func() {
		defer addr.Release()
		select {
		case <-delay:
			_ = addr.DoSend(msg)
		case <-drop.Done():
		}
	})
	return nil
}

// NotifyInterval is like NotifyAfter but repeats every d, calling build
// to produce the message for each tick, until the actor stops or a
// DoSend fails (meaning the actor is gone).
func (ctx *Context) NotifyInterval(d time.Duration, build func() any) error {
	addr, err := ctx.Address()
	if err != nil {
		return err
	}
	drop := ctx.drop
	ctx.spawner.Spawn(func() {
		defer addr.Release()
		for {
			select {
			case <-ctx.timer.Delay(d):
				if err := addr.DoSend(build()); err != nil {
					return
				}
			case <-drop.Done():
				return
			}
		}
	})
	return nil
}

// Attach runs a second actor instance sharing this Context's mailbox and
// broadcast channel: the two (or more) actors operate in a
// message-stealing fashion, with any one mailbox message handled by
// exactly one of them. The returned channel receives the attached actor's
// stop value once it terminates.
func (ctx *Context) Attach(actor Actor) <-chan any {
	child := ctx.sibling()
	done := make(chan any, 1)
	ctx.spawner.Spawn(func() {
		done <- child.run(actor)
	})
	return done
}

// Run drives actor through its full lifecycle: Started, the main message
// loop, stopping arbitration, and finally Stopped. It returns whatever
// Stopped produced (nil if actor does not implement StopValuer).
func (ctx *Context) Run(actor Actor) any {
	return ctx.run(actor)
}
