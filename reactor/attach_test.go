package reactor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workMsg struct{}

// workerActor increments a shared counter for every message it steals off
// the shared mailbox, and records its own share of the work.
type workerActor struct {
	shared *int32
	own    int32
}

func (w *workerActor) Receive(ctx *Context) {
	if _, ok := ctx.Message().(workMsg); ok {
		atomic.AddInt32(w.shared, 1)
		atomic.AddInt32(&w.own, 1)
	}
}

// TestAttach_MessageStealing spawns three actors sharing one mailbox via
// Attach and checks every message is handled exactly once, by whichever
// sibling happened to be free — the message-stealing pattern spec.md
// describes for attached actors.
func TestAttach_MessageStealing(t *testing.T) {
	var shared int32
	primary := &workerActor{shared: &shared}
	addr, ctx := New(0)
	primaryDone := make(chan any, 1)
	go func() { primaryDone <- ctx.Run(primary) }()

	sibling1 := &workerActor{shared: &shared}
	sibling2 := &workerActor{shared: &shared}
	attached1 := ctx.Attach(sibling1)
	attached2 := ctx.Attach(sibling2)

	const messages = 60
	for i := 0; i < messages; i++ {
		require.NoError(t, addr.DoSend(workMsg{}))
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&shared) < messages {
		select {
		case <-deadline:
			t.Fatalf("only %d/%d messages handled", atomic.LoadInt32(&shared), messages)
		case <-time.After(time.Millisecond):
		}
	}
	assert.EqualValues(t, messages, atomic.LoadInt32(&shared))

	addr.Release()
	waitForDone(t, primaryDone)
	waitForAttached(t, attached1)
	waitForAttached(t, attached2)
}

func waitForAttached(t *testing.T, done <-chan any) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("attached sibling did not terminate after the address dropped")
	}
}
