package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type gatedMsg struct{}

// gatedActor blocks inside Receive until gate is closed, letting a test
// hold exactly one message "in flight" to pin down a bounded mailbox's
// exact occupancy.
type gatedActor struct {
	gate chan struct{}
}

func (g *gatedActor) Receive(ctx *Context) {
	<-g.gate
}

// TestBackpressure_BoundedMailbox is spec.md §8's "capacity 1, three
// non-blocking sends" scenario: the first two must enqueue without
// blocking, the third must not resolve until capacity frees.
func TestBackpressure_BoundedMailbox(t *testing.T) {
	gate := make(chan struct{})
	actor := &gatedActor{gate: gate}
	addr, ctx := New(1)
	done := make(chan any, 1)
	go func() { done <- ctx.Run(actor) }()

	require.NoError(t, addr.DoSend(gatedMsg{}))
	// Give the manage loop a chance to dequeue the first message into
	// Receive (where it now blocks on gate), freeing the one buffer slot.
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, addr.DoSend(gatedMsg{}))

	thirdErr := make(chan error, 1)
	go func() { thirdErr <- addr.DoSend(gatedMsg{}) }()

	select {
	case <-thirdErr:
		t.Fatal("third send resolved with the mailbox still full")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)

	select {
	case err := <-thirdErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("third send never resolved once capacity freed")
	}

	addr.Release()
	waitForDone(t, done)
}
