package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/utils"
)

// schema is applied on open. Statements are idempotent so reopening an
// existing database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	bio           TEXT NOT NULL DEFAULT '',
	avatar_url    TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	group_chat BOOLEAN NOT NULL DEFAULT 0,
	creator_id TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (creator_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS chat_members (
	chat_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	PRIMARY KEY (chat_id, user_id),
	FOREIGN KEY (chat_id) REFERENCES chats(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	chat_id    TEXT NOT NULL,
	sender_id  TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (chat_id) REFERENCES chats(id),
	FOREIGN KEY (sender_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS attachments (
	public_id  TEXT PRIMARY KEY,
	message_id TEXT NOT NULL,
	url        TEXT NOT NULL,
	FOREIGN KEY (message_id) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS friend_requests (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (receiver_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id);
CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);
CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver ON friend_requests(receiver_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with a bcrypt password hash.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, name, bio, avatarURL, passwordHash string) (*store.User, error) {
	id := utils.NewID()
	query := `
		INSERT INTO users (id, username, name, bio, avatar_url, password_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, username, name, bio, avatarURL, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, username, name, bio, avatar_url, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, name, bio, avatar_url, password_hash, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Bio, &u.AvatarURL, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// SearchUsers finds users whose name matches the query, excluding the given IDs.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string, exclude []string) ([]*store.User, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, username, name, bio, avatar_url, password_hash, created_at
		FROM users
		WHERE name LIKE ?
	`)
	args := []any{"%" + query + "%"}
	if len(exclude) > 0 {
		sb.WriteString(" AND id NOT IN (?" + strings.Repeat(",?", len(exclude)-1) + ")")
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	sb.WriteString(" ORDER BY name")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsers returns all users.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	query := `
		SELECT id, username, name, bio, avatar_url, password_hash, created_at
		FROM users
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*store.User, error) {
	users := make([]*store.User, 0)
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Bio, &u.AvatarURL, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// ==== ChatStore implementation ====

// CreateChat creates a chat with the given members.
func (s *SQLiteStore) CreateChat(ctx context.Context, name string, groupChat bool, creatorID string, members []string) (*store.Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := utils.NewID()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chats (id, name, group_chat, creator_id) VALUES (?, ?, ?, ?)`,
		id, name, groupChat, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	for _, member := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chat_members (chat_id, user_id) VALUES (?, ?)`,
			id, member,
		); err != nil {
			return nil, fmt.Errorf("insert chat member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetChatByID(ctx, id)
}

// GetChatByID retrieves a chat with its member list.
func (s *SQLiteStore) GetChatByID(ctx context.Context, id string) (*store.Chat, error) {
	query := `
		SELECT id, name, group_chat, creator_id, created_at
		FROM chats
		WHERE id = ?
	`
	var c store.Chat
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.GroupChat, &c.CreatorID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat: %w", err)
	}

	members, err := s.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Members = members
	return &c, nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, chatID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM chat_members WHERE chat_id = ? ORDER BY user_id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// ListChatsByMember lists chats the user belongs to.
func (s *SQLiteStore) ListChatsByMember(ctx context.Context, userID string, groupOnly bool) ([]*store.Chat, error) {
	query := `
		SELECT c.id, c.name, c.group_chat, c.creator_id, c.created_at
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ?
	`
	args := []any{userID}
	if groupOnly {
		query += " AND c.group_chat = 1"
	}
	query += " ORDER BY c.created_at"

	return s.queryChats(ctx, query, args...)
}

// ListChats returns all chats with member lists.
func (s *SQLiteStore) ListChats(ctx context.Context) ([]*store.Chat, error) {
	query := `
		SELECT id, name, group_chat, creator_id, created_at
		FROM chats
		ORDER BY created_at
	`
	return s.queryChats(ctx, query)
}

func (s *SQLiteStore) queryChats(ctx context.Context, query string, args ...any) ([]*store.Chat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*store.Chat, 0)
	for rows.Next() {
		var c store.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupChat, &c.CreatorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range chats {
		members, err := s.listMembers(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Members = members
	}
	return chats, nil
}

// SetChatMembers replaces the chat's member set.
func (s *SQLiteStore) SetChatMembers(ctx context.Context, chatID string, members []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("clear chat members: %w", err)
	}
	for _, member := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chat_members (chat_id, user_id) VALUES (?, ?)`,
			chatID, member,
		); err != nil {
			return fmt.Errorf("insert chat member: %w", err)
		}
	}

	return tx.Commit()
}

// RenameChat updates the chat name.
func (s *SQLiteStore) RenameChat(ctx context.Context, chatID, name string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET name = ? WHERE id = ?`, name, chatID); err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}
	return nil
}

// SetChatCreator reassigns group ownership.
func (s *SQLiteStore) SetChatCreator(ctx context.Context, chatID, creatorID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET creator_id = ? WHERE id = ?`, creatorID, chatID); err != nil {
		return fmt.Errorf("set chat creator: %w", err)
	}
	return nil
}

// DeleteChat removes a chat, its memberships and its messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attachments WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)`, chatID,
	); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete chat members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	return tx.Commit()
}

// CountChatsByMember counts the user's chats, split by group flag.
func (s *SQLiteStore) CountChatsByMember(ctx context.Context, userID string, groupChat bool) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ? AND c.group_chat = ?
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, groupChat).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return count, nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message together with its attachments.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, createdAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	for _, att := range msg.Attachments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attachments (public_id, message_id, url) VALUES (?, ?, ?)`,
			att.PublicID, msg.ID, att.URL,
		); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}

	return tx.Commit()
}

// ListMessages returns one page of a chat's history, oldest first, with the
// total message count. Pages are 1-based; the newest page is page 1.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string, page, limit int) ([]*store.Message, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	messages, err := s.collectMessages(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	// Query is newest-first for paging; flip to oldest-first for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	total, err := s.CountMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// ListAllMessages returns all messages (admin view).
func (s *SQLiteStore) ListAllMessages(ctx context.Context) ([]*store.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all messages: %w", err)
	}
	return s.collectMessages(ctx, rows)
}

func (s *SQLiteStore) collectMessages(ctx context.Context, rows *sql.Rows) ([]*store.Message, error) {
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, m := range messages {
		atts, err := s.listMessageAttachments(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		m.Attachments = atts
	}
	return messages, nil
}

func (s *SQLiteStore) listMessageAttachments(ctx context.Context, messageID string) ([]store.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT public_id, url FROM attachments WHERE message_id = ?`, messageID)
	if err != nil {
		return nil, fmt.Errorf("list message attachments: %w", err)
	}
	defer rows.Close()

	var atts []store.Attachment
	for rows.Next() {
		var a store.Attachment
		if err := rows.Scan(&a.PublicID, &a.URL); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}

// ListAttachments returns every attachment stored for the chat.
func (s *SQLiteStore) ListAttachments(ctx context.Context, chatID string) ([]store.Attachment, error) {
	query := `
		SELECT a.public_id, a.url
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		WHERE m.chat_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat attachments: %w", err)
	}
	defer rows.Close()

	atts := make([]store.Attachment, 0)
	for rows.Next() {
		var a store.Attachment
		if err := rows.Scan(&a.PublicID, &a.URL); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}

// CountMessagesByChat counts messages in a chat.
func (s *SQLiteStore) CountMessagesByChat(ctx context.Context, chatID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// CountMessagesSince buckets messages created since the given time into
// per-day counts, oldest day first.
func (s *SQLiteStore) CountMessagesSince(ctx context.Context, since time.Time, days int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at FROM messages WHERE created_at >= ?`, since)
	if err != nil {
		return nil, fmt.Errorf("messages since: %w", err)
	}
	defer rows.Close()

	buckets := make([]int, days)
	now := time.Now()
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return nil, fmt.Errorf("scan created_at: %w", err)
		}
		index := int(now.Sub(createdAt).Hours() / 24)
		if index >= 0 && index < days {
			buckets[days-1-index]++
		}
	}
	return buckets, rows.Err()
}

// ==== RequestStore implementation ====

// CreateRequest records a pending friend request.
func (s *SQLiteStore) CreateRequest(ctx context.Context, senderID, receiverID string) (*store.FriendRequest, error) {
	id := utils.NewID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_requests (id, sender_id, receiver_id) VALUES (?, ?, ?)`,
		id, senderID, receiverID,
	); err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	return s.GetRequestByID(ctx, id)
}

// GetRequestByID retrieves a request.
func (s *SQLiteStore) GetRequestByID(ctx context.Context, id string) (*store.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE id = ?
	`
	return s.scanRequest(s.db.QueryRowContext(ctx, query, id))
}

// GetRequestBetween finds a request between two users in either direction.
func (s *SQLiteStore) GetRequestBetween(ctx context.Context, userA, userB string) (*store.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
	`
	return s.scanRequest(s.db.QueryRowContext(ctx, query, userA, userB, userB, userA))
}

func (s *SQLiteStore) scanRequest(row *sql.Row) (*store.FriendRequest, error) {
	var r store.FriendRequest
	err := row.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("friend request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan friend request: %w", err)
	}
	return &r, nil
}

// ListRequestsForReceiver lists pending requests addressed to the user.
func (s *SQLiteStore) ListRequestsForReceiver(ctx context.Context, receiverID string) ([]*store.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE receiver_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*store.FriendRequest, 0)
	for rows.Next() {
		var r store.FriendRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}

// DeleteRequest removes a request.
func (s *SQLiteStore) DeleteRequest(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

// ==== StatsStore implementation ====

// GetStats returns entity counts for the admin dashboard.
func (s *SQLiteStore) GetStats(ctx context.Context) (*store.Stats, error) {
	var stats store.Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users`, &stats.UserCount},
		{`SELECT COUNT(*) FROM chats`, &stats.ChatCount},
		{`SELECT COUNT(*) FROM chats WHERE group_chat = 1`, &stats.GroupCount},
		{`SELECT COUNT(*) FROM messages`, &stats.MessageCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("count stats: %w", err)
		}
	}
	return &stats, nil
}
