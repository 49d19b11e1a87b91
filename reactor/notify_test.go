package reactor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderedMsg struct{ n int }

// selfNotifyRecorder appends every message it handles to a slice, then on
// the distinguished "trigger" message queues three self-notifications in
// one call, letting the test observe the drain order.
type selfNotifyRecorder struct {
	seen []int
}

type triggerMsg struct{}

func (s *selfNotifyRecorder) Receive(ctx *Context) {
	switch m := ctx.Message().(type) {
	case triggerMsg:
		ctx.Notify(orderedMsg{n: 1})
		ctx.Notify(orderedMsg{n: 2})
		ctx.Notify(orderedMsg{n: 3})
	case orderedMsg:
		s.seen = append(s.seen, m.n)
	}
}

// TestNotify_DrainsSelfNotificationsLIFO pins down the order self-queued
// notifications made within a single handler invocation are later
// delivered in: last queued, first handled.
func TestNotify_DrainsSelfNotificationsLIFO(t *testing.T) {
	actor := &selfNotifyRecorder{}
	addr, ctx := New(0)
	done := make(chan any, 1)
	go func() { done <- ctx.Run(actor) }()

	require.NoError(t, addr.DoSend(triggerMsg{}))
	time.Sleep(20 * time.Millisecond)

	addr.Release()
	waitForDone(t, done)

	assert.Equal(t, []int{3, 2, 1}, actor.seen)
}

type broadcastTrigger struct{}

// countingActor counts the orderedMsg values it receives, and on
// broadcastTrigger fans one out to every actor sharing its address via
// NotifyAll.
type countingActor struct {
	count int32
}

func (c *countingActor) Receive(ctx *Context) {
	switch ctx.Message().(type) {
	case broadcastTrigger:
		ctx.NotifyAll(orderedMsg{n: 7})
	case orderedMsg:
		atomic.AddInt32(&c.count, 1)
	}
}

// TestNotifyAll_ReachesEveryAttachedActor checks NotifyAll fans out to
// every sibling sharing an address, including the one that made the call.
func TestNotifyAll_ReachesEveryAttachedActor(t *testing.T) {
	primary := &countingActor{}
	addr, ctx := New(0)
	primaryDone := make(chan any, 1)
	go func() { primaryDone <- ctx.Run(primary) }()

	sibling := &countingActor{}
	siblingDone := ctx.Attach(sibling)

	require.NoError(t, addr.DoSend(broadcastTrigger{}))
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 1, atomic.LoadInt32(&primary.count),
		"NotifyAll should reach the actor that made the call too")
	assert.EqualValues(t, 1, atomic.LoadInt32(&sibling.count),
		"NotifyAll should reach every sibling attached to the same address")

	addr.Release()
	waitForDone(t, primaryDone)
	waitForAttached(t, siblingDone)
}
