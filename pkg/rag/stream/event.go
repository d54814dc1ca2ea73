package stream

import "rag-chat-be/pkg/store"

type EventType string

const (
	EventContent EventType = "content"
	EventSources EventType = "sources"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one downstream stream item. Exactly one Done event terminates
// every stream, on every path.
type Event struct {
	Type    EventType
	Content string
	// Raw marks content forwarded verbatim because the upstream record
	// did not parse as JSON.
	Raw     bool
	Sources []store.Source
	Err     string
}
