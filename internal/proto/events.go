package proto

import "encoding/json"

// Inbound is the envelope for signals coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Wire event names. The same names are used for inbound signal types and
// outbound event types so web clients keep a single constants file.
const (
	EventNewMessage      = "NEW_MESSAGE"
	EventNewMessageAlert = "NEW_MESSAGE_ALERT"
	EventStartTyping     = "START_TYPING"
	EventStopTyping      = "STOP_TYPING"
	EventChatJoined      = "CHAT_JOINED"
	EventChatLeaved      = "CHAT_LEAVED"
	EventOnlineUsers     = "ONLINE_USERS"
	EventAlert           = "ALERT"
	EventRefetchChats    = "REFETCH_CHATS"
	EventNewRequest      = "NEW_REQUEST"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// NewMessageData is the inbound send-message payload.
type NewMessageData struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
	Message string   `json:"message"`
}

// TypingData is the inbound start/stop-typing payload.
type TypingData struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
}

// PresenceData is the inbound chat-joined/chat-leaved payload.
type PresenceData struct {
	UserID  string   `json:"userId"`
	Members []string `json:"members"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Sender identifies the author inside a delivered message.
type Sender struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// AttachmentRef points at an uploaded file served under /uploads.
type AttachmentRef struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// DeliveredMessage mirrors the shape persisted messages take on the wire.
type DeliveredMessage struct {
	ID          string          `json:"_id"`
	Content     string          `json:"content"`
	Sender      Sender          `json:"sender"`
	Chat        string          `json:"chat"`
	Attachments []AttachmentRef `json:"attachments"`
	CreatedAt   string          `json:"createdAt"`
}

// NewMessagePayload is the outbound new-message event data.
type NewMessagePayload struct {
	ChatID  string           `json:"chatId"`
	Message DeliveredMessage `json:"message"`
}

// ChatPayload carries only a chat reference (alerts and typing indicators).
type ChatPayload struct {
	ChatID string `json:"chatId"`
}

// AlertPayload is a human-readable notice, optionally scoped to a chat.
type AlertPayload struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
