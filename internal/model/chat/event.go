package chat

// EventType tags a stream event.
type EventType string

const (
	EventText  EventType = "text"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one unit of a persona's output. Exactly one terminal event
// (done or error) closes every invocation.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// TextEvent wraps an incremental content fragment.
func TextEvent(content string) Event {
	return Event{Type: EventText, Content: content}
}

// DoneEvent signals successful completion.
func DoneEvent() Event {
	return Event{Type: EventDone}
}

// ErrorEvent carries a human-readable failure message.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Error: message}
}

// Terminal reports whether the event closes the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
