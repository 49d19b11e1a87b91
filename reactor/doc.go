// Package reactor is a lightweight actor runtime embedded in a host
// cooperative-multitasking environment (a goroutine-based scheduler by
// default). Actors are isolated units of state processed one message at a
// time; external producers talk to an actor only through an Address, a
// cheap, cloneable handle backed by a shared mailbox.
//
// The hard part, and the bulk of this package, is the per-actor manager
// loop in context.go and manager.go: it multiplexes a point-to-point
// mailbox, a broadcast channel and in-handler self-notifications, enforces
// priority and fairness between them, drives the lifecycle state machine
// (started -> running -> stopping -> stopped, with resurrection), and
// shuts down cleanly when the last strong Address disappears or a stop is
// requested.
package reactor
