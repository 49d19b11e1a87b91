package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopAndBlockMsg struct{}

// stopAndBlockActor requests a stop as soon as it sees stopAndBlockMsg,
// then blocks until gate is closed — holding the manage loop inside one
// handleEnvelope call for exactly as long as the test needs to queue a
// second message behind it. It implements no Stopper, so the pending Stop
// resolves to StopAll as soon as Receive returns.
type stopAndBlockActor struct {
	gate chan struct{}
}

func (a *stopAndBlockActor) Receive(ctx *Context) {
	if _, ok := ctx.Message().(stopAndBlockMsg); ok {
		ctx.Stop()
		<-a.gate
	}
}

type payloadMsg struct{}

// TestStopAll_DisconnectsQueuedReply is spec.md:159's "reply slot whose
// actor terminated before handling" half of Disconnected: a message queued
// behind one that triggers StopAll must have its reply channel closed by
// stop_all's drain, not left to hang forever.
func TestStopAll_DisconnectsQueuedReply(t *testing.T) {
	actor := &stopAndBlockActor{gate: make(chan struct{})}
	addr, ctx := New(0)
	done := make(chan any, 1)
	go func() { done <- ctx.Run(actor) }()

	require.NoError(t, addr.DoSend(stopAndBlockMsg{}))
	// Give the manage loop a chance to dequeue stopAndBlockMsg and enter
	// Receive, where it calls ctx.Stop() and then blocks on the gate.
	time.Sleep(30 * time.Millisecond)

	req, err := addr.Send(context.Background(), payloadMsg{})
	require.NoError(t, err, "payloadMsg must still be acceptable while the actor is blocked mid-handler")

	type recvResult struct {
		v   any
		err error
	}
	resultCh := make(chan recvResult, 1)
	go func() {
		v, err := req.Recv(context.Background())
		resultCh <- recvResult{v, err}
	}()

	select {
	case <-resultCh:
		t.Fatal("reply resolved before the actor even left its blocked handler")
	case <-time.After(50 * time.Millisecond):
	}

	close(actor.gate)

	select {
	case r := <-resultCh:
		assert.ErrorIs(t, r.err, ErrDisconnected)
	case <-time.After(time.Second):
		t.Fatal("queued reply never resolved after stop_all drained the mailbox")
	}

	waitForDone(t, done)
	assert.False(t, addr.IsConnected())
}
