package reactor

import "context"

// IntoChannelSink adapts an Address into a plain Go channel a streaming
// producer can range over: every value sent on the returned channel is
// forwarded to the actor with DoSend. The forwarding goroutine exits, and
// the channel should no longer be written to, once the channel is closed,
// ctx is canceled, or a forwarded DoSend fails because the actor has
// disconnected (a disconnect is only noticed on the next forwarded value).
//
// This mirrors xtra's `into_sink()` (spec §6): a way to plug an upstream
// stream of values into an actor without hand-writing the send loop.
func (a Address) IntoChannelSink(ctx context.Context) chan<- any {
	in := make(chan any)
	go func() {
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				if err := a.DoSend(msg); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return in
}
