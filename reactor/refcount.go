package reactor

import "sync"

// refCount pairs a strong/weak address count with a disconnected flag set
// under the same critical section as final stop. A naive atomic counter is
// not enough: the runtime needs to distinguish "no external strong handles
// right now" from "the actor has finalized and no new handle may ever be
// minted again" (spec: "Refcounting with disconnect"). Go's idiom for a
// compound invariant like this is a mutex, not a pair of CAS loops, so that
// is what is used here in place of the originating Rust's AtomicBool
// guarded by an Arc strong count.
type refCount struct {
	mu           sync.Mutex
	strong       int
	weak         int
	disconnected bool
}

func newRefCount() *refCount {
	return &refCount{}
}

func (r *refCount) incStrong() {
	r.mu.Lock()
	r.strong++
	r.mu.Unlock()
}

// decStrong decrements the strong count and returns the count afterwards.
func (r *refCount) decStrong() int {
	r.mu.Lock()
	r.strong--
	n := r.strong
	r.mu.Unlock()
	return n
}

func (r *refCount) incWeak() {
	r.mu.Lock()
	r.weak++
	r.mu.Unlock()
}

func (r *refCount) decWeak() {
	r.mu.Lock()
	r.weak--
	r.mu.Unlock()
}

func (r *refCount) strongCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strong
}

// upgrade increments the strong count and returns true, unless no strong
// handle is left or the refcount has been marked disconnected, in which
// case it leaves the count untouched and returns false. The disconnected
// check is what lets a WeakAddress fail to upgrade even when, briefly, the
// strong count is nonzero but a final stop has already been decided.
func (r *refCount) upgrade() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disconnected || r.strong == 0 {
		return false
	}
	r.strong++
	return true
}

func (r *refCount) markDisconnected() {
	r.mu.Lock()
	r.disconnected = true
	r.mu.Unlock()
}

func (r *refCount) isDisconnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnected
}

// dropNotifier signals, exactly once, that a Context has reached the end
// of its lifetime. Timer tasks spawned by NotifyAfter/NotifyInterval race
// their delay against this signal so they never outlive the Context that
// spawned them.
//
// Go has no deterministic destructor, so where the original fires this on
// Drop, here it is fired explicitly by the manage loop at the point the
// Context's run future is about to return (see Context.Run's terminate
// step) — the closest equivalent of "the Context was dropped" available
// without relying on GC timing.
type dropNotifier struct {
	once sync.Once
	ch   chan struct{}
}

func newDropNotifier() *dropNotifier {
	return &dropNotifier{ch: make(chan struct{})}
}

func (d *dropNotifier) Done() <-chan struct{} {
	return d.ch
}

func (d *dropNotifier) fire() {
	d.once.Do(func() { close(d.ch) })
}
