package reactor

import (
	"time"

	"go.uber.org/zap"
)

// incoming is whichever of the two external sources (mailbox, broadcast)
// the manage loop's select resolved to.
type incoming struct {
	fromBroadcast bool
	mbEntry       mailboxEntry
	bcEntry       broadcastEntry
}

// run is the manage loop described in spec.md §4.5. It is unexported so
// that Run and Attach (which both call it, the latter on a sibling
// Context) share one implementation.
func (ctx *Context) run(actor Actor) (stopValue any) {
	defer ctx.terminate(actor)

	if s, ok := actor.(Starter); ok {
		s.Started(ctx)
	}
	ctx.logger.Info("actor started",
		zap.String("actor", actorName(actor)),
		zap.String("actor_id", ctx.instanceID.String()),
	)

	// "Idk why anyone would do this" but started() may have called
	// ctx.Stop() already; honor it before ever touching the mailbox.
	if !ctx.checkRunning(actor) {
		return ctx.stopValue(actor)
	}

	// Step 3: a Shutdown may already be sitting on the broadcast channel
	// (e.g. stop_all ran on a sibling before this actor's loop started).
	select {
	case b := <-ctx.bcRecv:
		if b.shutdown {
			ctx.state = stateStopped
			return ctx.stopValue(actor)
		}
		if !ctx.tick(actor, incoming{fromBroadcast: true, bcEntry: b}) {
			return ctx.stopValue(actor)
		}
	default:
	}

	for {
		var in incoming
		select {
		case e := <-ctx.mb.recvChan():
			in = incoming{mbEntry: e}
		case b := <-ctx.bcRecv:
			in = incoming{fromBroadcast: true, bcEntry: b}
		}

		// Anti-starvation rule: immediately after the select resolves,
		// opportunistically try a non-blocking broadcast recv, and
		// process it first if one is ready. This bounds how long a
		// pending broadcast message can be starved by sustained
		// point-to-point traffic to at most one mailbox-message delay.
		select {
		case b := <-ctx.bcRecv:
			if !ctx.tick(actor, incoming{fromBroadcast: true, bcEntry: b}) {
				return ctx.stopValue(actor)
			}
		default:
		}

		if !ctx.tick(actor, in) {
			return ctx.stopValue(actor)
		}
	}
}

// tick handles one entry from either source plus its consequences
// (self-notification drain, lifecycle re-check), and reports whether the
// manage loop should continue.
func (ctx *Context) tick(actor Actor, in incoming) bool {
	if in.fromBroadcast {
		if in.bcEntry.shutdown {
			ctx.state = stateStopped
			return false
		}
		ctx.handleEnvelope(actor, in.bcEntry.env)
	} else {
		if in.mbEntry.lastAddress {
			// The LastAddress sentinel is a hint, not ground truth: a
			// new strong Address could have been minted via
			// Context.Address between enqueue and dequeue, so the
			// strong count is re-checked here rather than trusted.
			if ctx.ref.strongCount() == 0 {
				ctx.stopAll()
				ctx.state = stateStopped
				return false
			}
			return true
		}
		ctx.handleEnvelope(actor, in.mbEntry.env)
	}

	if !ctx.checkRunning(actor) {
		return false
	}
	return ctx.handleSelfNotifications(actor)
}

// handleEnvelope invokes actor.Receive with ctx.Message()/ctx.Reply()
// wired to e, racing it against a slow-handler watchdog. Receive runs on
// its own goroutine only so the watchdog ticker can observe elapsed time
// while it is in flight; the manage loop always blocks until Receive
// returns before doing anything else, so actor state still only ever has
// one mutator at a time.
func (ctx *Context) handleEnvelope(actor Actor, e *envelope) {
	ctx.currentMsg = e.msg
	ctx.currentReply = e.reply
	defer func() {
		ctx.currentMsg = nil
		ctx.currentReply = nil
	}()

	done := make(chan struct{})
	go func() {
		actor.Receive(ctx)
		close(done)
	}()

	if ctx.watchdogEvery <= 0 {
		<-done
		return
	}

	ticker := time.NewTicker(ctx.watchdogEvery)
	defer ticker.Stop()

	var elapsed time.Duration
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			elapsed += ctx.watchdogEvery
			fields := append(fieldsForEnvelope(ctx.instanceID.String(), e),
				zap.String("actor", actorName(actor)),
				zap.Duration("elapsed", elapsed),
			)
			ctx.logger.Warn("actor has been processing a message for a while", fields...)
		}
	}
}

// checkRunning consults the lifecycle state, performing stopping
// arbitration if it is Stopping. It returns whether the manage loop
// should continue.
func (ctx *Context) checkRunning(actor Actor) bool {
	switch ctx.state {
	case stateRunning:
		return true
	case stateStopped:
		return false
	}

	// stateStopping: an Actor without Stopper behaves as though Stopping
	// always returned StopAll (spec.md §8 scenario 2's "default").
	verdict := StopAll
	if s, ok := actor.(Stopper); ok {
		verdict = s.Stopping(ctx)
	}

	switch verdict {
	case Yes:
		ctx.state = stateRunning
		return true
	case StopSelf:
		// Only this actor terminates: the mailbox stays open and no
		// Shutdown is broadcast, so any other actor attached to the
		// same address keeps running undisturbed. The refcount is
		// still marked disconnected, since spec.md's "StopSelf
		// disconnects address" scenario holds even for a lone,
		// unattached actor — no new WeakAddress can upgrade, and
		// IsConnected turns false, once this was the decision.
		ctx.ref.markDisconnected()
		ctx.state = stateStopped
		return false
	default: // StopAll
		ctx.stopAll()
		ctx.state = stateStopped
		return false
	}
}

// handleSelfNotifications drains the self-notification stack, handling
// each in turn and re-checking the lifecycle after every one, so a
// Context.Stop() made from inside a self-notification is honored without
// waiting for an external message to arrive.
func (ctx *Context) handleSelfNotifications(actor Actor) bool {
	for ctx.selfNotify.Len() > 0 {
		e := ctx.selfNotify.PopBack()

		ctx.handleEnvelope(actor, e)
		if !ctx.checkRunning(actor) {
			return false
		}
	}
	return true
}

// stopAll disconnects the whole address: the refcount is marked
// disconnected (so no WeakAddress can upgrade and IsConnected turns
// false), a Shutdown is broadcast to every attached sibling, and the
// mailbox is drained and closed so producers blocked on a full bounded
// mailbox fail with ErrDisconnected instead of waiting forever.
func (ctx *Context) stopAll() {
	ctx.ref.markDisconnected()
	ctx.bc.publish(broadcastEntry{shutdown: true})
	ctx.mb.drain()
	ctx.mb.close()
}

// terminate runs once, as the manage loop is about to return: it logs the
// stop transition, tears down this Context's own broadcast subscription,
// removes this Context's claim on the (possibly shared) mailbox — closing
// it, and so unblocking Address.Join, only once every attached sibling has
// also terminated — and fires the DropNotifier so any outstanding
// NotifyAfter/NotifyInterval timer tasks cancel.
func (ctx *Context) terminate(actor Actor) {
	ctx.logger.Info("actor stopped",
		zap.String("actor", actorName(actor)),
		zap.String("actor_id", ctx.instanceID.String()),
	)
	ctx.bc.unsubscribe(ctx.bcSubID)
	ctx.mb.removeUser()
	ctx.drop.fire()
}

func (ctx *Context) stopValue(actor Actor) any {
	if sv, ok := actor.(StopValuer); ok {
		return sv.Stopped()
	}
	return nil
}

// YieldOnce processes one self-notification if any are queued, else waits
// for and handles exactly one mailbox or broadcast message.
func (ctx *Context) YieldOnce(actor Actor) {
	if ctx.selfNotify.Len() > 0 {
		e := ctx.selfNotify.PopBack()
		ctx.handleEnvelope(actor, e)
		ctx.checkRunning(actor)
		return
	}

	select {
	case e := <-ctx.mb.recvChan():
		ctx.tick(actor, incoming{mbEntry: e})
	case b := <-ctx.bcRecv:
		ctx.tick(actor, incoming{fromBroadcast: true, bcEntry: b})
	}
}

// HandleWhile runs fn concurrently with the manage loop: while fn is in
// flight, ordinary mailbox/broadcast messages continue to be handled.
// Self-notifications queued before the call are drained at entry; each
// message handled during the wait goes through tick, which drains the
// self-notifications that message's handler queued.
func (ctx *Context) HandleWhile(actor Actor, fn func() any) any {
	if !ctx.handleSelfNotifications(actor) {
		ctx.state = stateStopped
	}

	done := make(chan any, 1)
	go func() { done <- fn() }()

	for {
		select {
		case result := <-done:
			return result
		case e := <-ctx.mb.recvChan():
			ctx.tick(actor, incoming{mbEntry: e})
		case b := <-ctx.bcRecv:
			ctx.tick(actor, incoming{fromBroadcast: true, bcEntry: b})
		}
	}
}
