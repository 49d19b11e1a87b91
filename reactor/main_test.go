package reactor

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that none of the package's tests leak a goroutine: the
// manage loop, its watchdog racer, and every NotifyAfter/NotifyInterval
// timer task must all exit once their owning Context terminates.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
