package reactor

import "golang.org/x/sync/errgroup"

// Spawner is the one host-integration point the runtime needs for
// concurrency: given a unit of work, run it. The core never assumes a
// particular scheduler (tokio, async-std, a custom cooperative host, a
// pool of goroutines); it only ever calls Spawn.
type Spawner interface {
	Spawn(fn func())
}

// GoroutineSpawner is the default Spawner: it starts fn on its own
// goroutine and returns immediately. It is grounded directly in the
// teacher's own `go proc.run()` call in its engine's Spawn method.
type GoroutineSpawner struct{}

// Spawn launches fn on a new goroutine.
func (GoroutineSpawner) Spawn(fn func()) {
	go fn()
}

// ErrGroupSpawner is a Spawner for hosts that want structured concurrency:
// every task it spawns is tracked by a golang.org/x/sync/errgroup.Group, so
// callers can Wait for all of them (actors, their attached siblings, their
// timer tasks) to finish. The group has no derived context and every
// tracked task returns nil, so this gives orderly wait semantics, not
// fail-fast cancellation.
type ErrGroupSpawner struct {
	g *errgroup.Group
}

// NewErrGroupSpawner creates an ErrGroupSpawner backed by a fresh
// errgroup.Group. No context is created or returned.
func NewErrGroupSpawner() *ErrGroupSpawner {
	g := &errgroup.Group{}
	return &ErrGroupSpawner{g: g}
}

// Spawn tracks fn in the underlying errgroup.
func (s *ErrGroupSpawner) Spawn(fn func()) {
	s.g.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every task spawned through this ErrGroupSpawner has
// returned.
func (s *ErrGroupSpawner) Wait() error {
	return s.g.Wait()
}
