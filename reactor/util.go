package reactor

import "fmt"

// messageName returns a human-readable name for a message value, used in
// slow-handler watchdog diagnostics and structured log fields.
func messageName(msg any) string {
	return fmt.Sprintf("%T", msg)
}

// actorName returns a human-readable name for an actor value, used in
// watchdog diagnostics ("actor X has been processing message Y for Zs").
func actorName(actor Actor) string {
	return fmt.Sprintf("%T", actor)
}
