package reactor

import "go.uber.org/zap"

// newNopLogger is used when no logger is supplied via WithLogger, so
// Context methods never have to nil-check before logging. Hosts that want
// the watchdog/lifecycle diagnostics should pass a real *zap.Logger.
func newNopLogger() *zap.Logger {
	return zap.NewNop()
}

// fieldsForEnvelope builds the structured fields attached to every
// watchdog log line for a given message envelope.
func fieldsForEnvelope(actorID string, e *envelope) []zap.Field {
	return []zap.Field{
		zap.String("actor_id", actorID),
		zap.String("message", messageName(e.msg)),
	}
}
