package realtime

import "time"

// EventKind is a notification the gateway delivers to connections.
// The set is closed: transports dispatch over it with an explicit switch
// instead of free-form event-name strings.
type EventKind int

const (
	// EventNewMessage carries a chat message to the chat's members.
	EventNewMessage EventKind = iota
	// EventNewMessageAlert is the lightweight "something arrived" ping that
	// accompanies every EventNewMessage.
	EventNewMessageAlert
	// EventStartTyping and EventStopTyping relay typing indicators.
	EventStartTyping
	EventStopTyping
	// EventOnlineUsers delivers the full presence snapshot, never a delta.
	EventOnlineUsers
	// EventAlert is a human-readable notice raised by chat CRUD handlers
	// (group created, member added, ...).
	EventAlert
	// EventRefetchChats tells clients their chat list went stale.
	EventRefetchChats
	// EventNewRequest notifies a user of an incoming friend request.
	EventNewRequest
	// EventError reports a rejected inbound signal back to its sender.
	EventError
)

// Identity is the authenticated user reference used as the key for session
// and presence lookups. Immutable for a connection's lifetime.
type Identity struct {
	ID   string
	Name string
}

// Attachment references an uploaded file delivered with a message.
type Attachment struct {
	PublicID string
	URL      string
}

// MessagePayload is the realtime rendition of a chat message. It is built
// before the durable write happens and is never retracted if that write fails.
type MessagePayload struct {
	ID          string
	ChatID      string
	Content     string
	Sender      Identity
	Attachments []Attachment
	CreatedAt   time.Time
}

// Event describes what happened, with kind-specific payload fields.
type Event struct {
	Kind    EventKind
	ChatID  string          // message, alert and typing events
	Message *MessagePayload // EventNewMessage
	Users   []string        // EventOnlineUsers, EventRefetchChats
	Text    string          // EventAlert, EventError
}
