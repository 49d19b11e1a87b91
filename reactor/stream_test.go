package reactor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type streamMsg struct{}

type streamSinkActor struct {
	received int32
}

func (s *streamSinkActor) Receive(ctx *Context) {
	if _, ok := ctx.Message().(streamMsg); ok {
		atomic.AddInt32(&s.received, 1)
	}
}

// TestStreamCancel_WeakAddressAttachAndDrop is spec.md §8's "stream cancel
// via weak-address attach + drop": a never-ending producer sends through a
// WeakAddress it re-upgrades on every tick (so it contributes nothing to
// the strong refcount); once the sole strong Address is dropped, both the
// producer loop and a concurrent Join resolve within a bounded timeout.
func TestStreamCancel_WeakAddressAttachAndDrop(t *testing.T) {
	actor := &streamSinkActor{}
	addr, ctx := New(0)
	runDone := make(chan any, 1)
	go func() { runDone <- ctx.Run(actor) }()

	weak := addr.Downgrade()

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		for {
			a, ok := weak.Upgrade()
			if !ok {
				return
			}
			err := a.DoSend(streamMsg{})
			a.Release()
			if err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	time.Sleep(20 * time.Millisecond) // let a handful of messages flow first
	addr.Release()

	joinDone := make(chan struct{})
	go func() {
		defer close(joinDone)
		joinCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = addr.Join(joinCtx)
	}()

	select {
	case <-streamDone:
	case <-time.After(time.Second):
		t.Fatal("producer attached via WeakAddress did not stop after the strong address dropped")
	}

	select {
	case <-joinDone:
	case <-time.After(time.Second):
		t.Fatal("Join did not resolve after the strong address dropped")
	}

	waitForDone(t, runDone)
}
