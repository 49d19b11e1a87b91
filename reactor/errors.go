package reactor

import "errors"

// ErrDisconnected is returned by a send into a mailbox whose actor has
// already terminated, or delivered to a reply slot whose actor terminated
// before handling the message. It is recoverable: the caller simply knows
// the actor is gone.
var ErrDisconnected = errors.New("reactor: actor disconnected")

// ErrActorShutdown is returned by a Context operation (Address, timers)
// when the actor is in the process of terminating and cannot serve the
// request because no strong Address can be minted any more.
var ErrActorShutdown = errors.New("reactor: actor shutting down")
