package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	Name         string
	Bio          string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
}

// Chat is either a direct conversation between two users or a named group.
type Chat struct {
	ID        string
	Name      string
	GroupChat bool
	CreatorID string
	Members   []string
	CreatedAt time.Time
}

// Attachment is a file delivered with a message. PublicID keys the blob in
// the file store; URL is what clients fetch.
type Attachment struct {
	PublicID string
	URL      string
}

// Message is a persisted chat message.
type Message struct {
	ID          string
	ChatID      string
	SenderID    string
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time
}

// FriendRequest is a pending friend request between two users.
type FriendRequest struct {
	ID         string
	SenderID   string
	ReceiverID string
	CreatedAt  time.Time
}

// Stats is the aggregate snapshot served to the admin dashboard.
type Stats struct {
	UserCount    int
	ChatCount    int
	GroupCount   int
	MessageCount int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with a bcrypt password hash.
	CreateUser(ctx context.Context, username, name, bio, avatarURL, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers finds users whose name matches the query, excluding the
	// given user IDs. An empty query matches everyone.
	SearchUsers(ctx context.Context, query string, exclude []string) ([]*User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*User, error)
}

// ChatStore handles chat and membership persistence.
type ChatStore interface {
	// CreateChat creates a chat with the given members.
	CreateChat(ctx context.Context, name string, groupChat bool, creatorID string, members []string) (*Chat, error)

	// GetChatByID retrieves a chat with its member list.
	GetChatByID(ctx context.Context, id string) (*Chat, error)

	// ListChatsByMember lists chats the user belongs to. When groupOnly is
	// true only group chats are returned.
	ListChatsByMember(ctx context.Context, userID string, groupOnly bool) ([]*Chat, error)

	// SetChatMembers replaces the chat's member set.
	SetChatMembers(ctx context.Context, chatID string, members []string) error

	// RenameChat updates the chat name.
	RenameChat(ctx context.Context, chatID, name string) error

	// SetChatCreator reassigns group ownership.
	SetChatCreator(ctx context.Context, chatID, creatorID string) error

	// DeleteChat removes a chat, its memberships and its messages.
	DeleteChat(ctx context.Context, chatID string) error

	// ListChats returns all chats with member lists.
	ListChats(ctx context.Context) ([]*Chat, error)

	// CountChatsByMember counts the user's chats, split by group flag.
	CountChatsByMember(ctx context.Context, userID string, groupChat bool) (int, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message together with its attachments.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns one page of a chat's history, oldest first,
	// along with the total message count for the chat. Pages are 1-based.
	ListMessages(ctx context.Context, chatID string, page, limit int) ([]*Message, int, error)

	// ListAttachments returns every attachment stored for the chat.
	ListAttachments(ctx context.Context, chatID string) ([]Attachment, error)

	// ListAllMessages returns all messages (admin view).
	ListAllMessages(ctx context.Context) ([]*Message, error)

	// CountMessagesByChat counts messages in a chat.
	CountMessagesByChat(ctx context.Context, chatID string) (int, error)

	// CountMessagesSince buckets messages created since the given time into
	// per-day counts, oldest day first.
	CountMessagesSince(ctx context.Context, since time.Time, days int) ([]int, error)
}

// RequestStore handles friend request persistence.
type RequestStore interface {
	// CreateRequest records a pending friend request.
	CreateRequest(ctx context.Context, senderID, receiverID string) (*FriendRequest, error)

	// GetRequestByID retrieves a request.
	GetRequestByID(ctx context.Context, id string) (*FriendRequest, error)

	// GetRequestBetween finds a request between two users in either direction.
	GetRequestBetween(ctx context.Context, userA, userB string) (*FriendRequest, error)

	// ListRequestsForReceiver lists pending requests addressed to the user.
	ListRequestsForReceiver(ctx context.Context, receiverID string) ([]*FriendRequest, error)

	// DeleteRequest removes a request.
	DeleteRequest(ctx context.Context, id string) error
}

// StatsStore aggregates counters for the admin dashboard.
type StatsStore interface {
	// GetStats returns entity counts.
	GetStats(ctx context.Context) (*Stats, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	MessageStore
	RequestStore
	StatsStore

	// Close closes the underlying database connection.
	Close() error
}
