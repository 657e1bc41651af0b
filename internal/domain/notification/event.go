package notification

// Event names pushed to connected clients.
const (
	EventItemStatus       = "item:status"
	EventItemDeleted      = "item:deleted"
	EventSwapCreated      = "swap:created"
	EventSwapStatus       = "swap:status"
	EventPaymentCompleted = "payment:completed"
)

// Event is a single realtime notification. Payload must be JSON-marshalable.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}
