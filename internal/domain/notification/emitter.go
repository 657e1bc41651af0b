package notification

// Emitter delivers events to connected clients. Emit is fire-and-forget:
// it never blocks the caller and delivery failures never surface as errors,
// notifications must not affect settlement outcomes.
type Emitter interface {
	Emit(event Event)
}
