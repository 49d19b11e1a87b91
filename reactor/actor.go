package reactor

// Actor is the minimal capability a user state type must provide: the
// ability to process one message at a time. Messages are dispatched by
// type switch inside Receive, the same shape used throughout the actor
// frameworks this runtime is descended from (no per-message-type generic
// handler is registered; the message's own type is matched against inside
// the single entry point).
//
// Receive is invoked with exclusive, non-concurrent access to the actor's
// state: the manager loop never calls Receive again until the previous
// call has returned and any self-notifications it queued have drained.
type Actor interface {
	Receive(ctx *Context)
}

// Starter is an optional capability: if an Actor implements it, Started is
// invoked once, before the manage loop begins reading from the mailbox.
type Starter interface {
	Started(ctx *Context)
}

// Stopper is an optional capability consulted whenever the lifecycle state
// becomes Stopping because Context.Stop was called from inside a handler
// or hook. Its return value drives the stopping arbitration described in
// Context.Run. Dropping the last strong Address does not go through this
// arbitration at all — it always forces a full stop_all, the same as if
// Stopper were absent or had returned StopAll.
//
// An Actor that does not implement Stopper behaves as though Stopping
// always returned StopAll — there is nothing to arbitrate, so the actor
// (and, if attached, its whole address) stops immediately.
type Stopper interface {
	Stopping(ctx *Context) KeepRunning
}

// StopValuer is an optional capability invoked exactly once, after the
// manage loop has exited, to produce the value returned from Run/Attach.
// An Actor that does not implement it yields a nil stop value.
type StopValuer interface {
	Stopped() any
}

// KeepRunning is the stopping-arbitration verdict returned by Stopper.
type KeepRunning int

const (
	// Yes resumes the actor: the lifecycle state returns to Running and
	// the manage loop continues.
	Yes KeepRunning = iota
	// StopSelf terminates only this actor. Other actors attached to the
	// same Address (see Context.Attach) continue running.
	StopSelf
	// StopAll terminates this actor and disconnects the whole Address:
	// the refcount is marked disconnected, a Shutdown is broadcast to
	// every attached sibling, and the mailbox is drained so pending
	// senders fail with ErrDisconnected.
	StopAll
)

func (k KeepRunning) String() string {
	switch k {
	case Yes:
		return "Yes"
	case StopSelf:
		return "StopSelf"
	case StopAll:
		return "StopAll"
	default:
		return "unknown"
	}
}
