package utils

import "github.com/google/uuid"

// NewID returns a new opaque identifier. Users, chats, messages and
// attachments all use plain UUID strings so IDs stay comparable as map keys.
func NewID() string {
	return uuid.NewString()
}
