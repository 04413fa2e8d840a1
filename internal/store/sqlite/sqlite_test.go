package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/utils"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *SQLiteStore, username, name string) *store.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), username, name, "", "", "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	createUser(t, s, "alex", "Alex")
	createUser(t, s, "alan", "Alan")
	bob := createUser(t, s, "bob", "Bob")
	createUser(t, s, "charlie", "Charlie")

	tests := []struct {
		name     string
		query    string
		exclude  []string
		expected []string
	}{
		{
			name:     "search 'Al'",
			query:    "Al",
			expected: []string{"Alan", "Alex", "Alice"},
		},
		{
			name:     "search 'Al' excluding alice",
			query:    "Al",
			exclude:  []string{alice.ID},
			expected: []string{"Alan", "Alex"},
		},
		{
			name:     "empty query matches everyone",
			query:    "",
			exclude:  []string{alice.ID, bob.ID},
			expected: []string{"Alan", "Alex", "Charlie"},
		},
		{
			name:     "no match",
			query:    "zzz",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := s.SearchUsers(ctx, tt.query, tt.exclude)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(users) != len(tt.expected) {
				t.Fatalf("expected %d users, got %d", len(tt.expected), len(users))
			}
			for i, u := range users {
				if u.Name != tt.expected[i] {
					t.Errorf("user %d: expected %s, got %s", i, tt.expected[i], u.Name)
				}
			}
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	createUser(t, s, "alice", "Alice")
	if _, err := s.CreateUser(context.Background(), "alice", "Other", "", "", "hash"); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}

func TestGetUserByUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createUser(t, s, "alice", "Alice")

	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected id %s, got %s", created.ID, got.ID)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); err == nil {
		t.Fatal("expected missing user to fail")
	}
}

func TestChatLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	carol := createUser(t, s, "carol", "Carol")

	chat, err := s.CreateChat(ctx, "trio", true, alice.ID, []string{alice.ID, bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}
	if !chat.GroupChat {
		t.Error("expected group chat flag")
	}
	if len(chat.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(chat.Members))
	}

	if err := s.RenameChat(ctx, chat.ID, "the trio"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if err := s.SetChatCreator(ctx, chat.ID, bob.ID); err != nil {
		t.Fatalf("set creator failed: %v", err)
	}
	if err := s.SetChatMembers(ctx, chat.ID, []string{bob.ID, carol.ID}); err != nil {
		t.Fatalf("set members failed: %v", err)
	}

	got, err := s.GetChatByID(ctx, chat.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Name != "the trio" {
		t.Errorf("expected renamed chat, got %q", got.Name)
	}
	if got.CreatorID != bob.ID {
		t.Errorf("expected creator %s, got %s", bob.ID, got.CreatorID)
	}
	if len(got.Members) != 2 {
		t.Errorf("expected 2 members after update, got %d", len(got.Members))
	}

	// Alice was removed from the only chat she was in.
	chats, err := s.ListChatsByMember(ctx, alice.ID, false)
	if err != nil {
		t.Fatalf("list chats failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("expected no chats for alice, got %d", len(chats))
	}
}

func TestListChatsByMember_GroupOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	carol := createUser(t, s, "carol", "Carol")

	if _, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("failed to create direct chat: %v", err)
	}
	if _, err := s.CreateChat(ctx, "trio", true, alice.ID, []string{alice.ID, bob.ID, carol.ID}); err != nil {
		t.Fatalf("failed to create group chat: %v", err)
	}

	all, err := s.ListChatsByMember(ctx, alice.ID, false)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 chats, got %d", len(all))
	}

	groups, err := s.ListChatsByMember(ctx, alice.ID, true)
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 1 || !groups[0].GroupChat {
		t.Errorf("expected exactly the group chat, got %d", len(groups))
	}

	directs, err := s.CountChatsByMember(ctx, alice.ID, false)
	if err != nil {
		t.Fatalf("count directs failed: %v", err)
	}
	if directs != 1 {
		t.Errorf("expected 1 direct chat, got %d", directs)
	}
}

func TestMessagePaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	chat, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	contents := []string{"one", "two", "three", "four", "five"}
	for i, content := range contents {
		msg := &store.Message{
			ID:        utils.NewID(),
			ChatID:    chat.ID,
			SenderID:  alice.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("failed to save message %q: %v", content, err)
		}
	}

	// Page 1 holds the newest messages, oldest first within the page.
	page1, total, err := s.ListMessages(ctx, chat.ID, 1, 2)
	if err != nil {
		t.Fatalf("list page 1 failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page1) != 2 || page1[0].Content != "four" || page1[1].Content != "five" {
		t.Errorf("unexpected page 1: %+v", messageContents(page1))
	}

	page3, _, err := s.ListMessages(ctx, chat.ID, 3, 2)
	if err != nil {
		t.Fatalf("list page 3 failed: %v", err)
	}
	if len(page3) != 1 || page3[0].Content != "one" {
		t.Errorf("unexpected page 3: %+v", messageContents(page3))
	}

	empty, _, err := s.ListMessages(ctx, chat.ID, 4, 2)
	if err != nil {
		t.Fatalf("list past the end failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d messages", len(empty))
	}
}

func messageContents(msgs []*store.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestMessageAttachments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	chat, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}

	msg := &store.Message{
		ID:       utils.NewID(),
		ChatID:   chat.ID,
		SenderID: alice.ID,
		Attachments: []store.Attachment{
			{PublicID: "p1", URL: "/uploads/p1.png"},
			{PublicID: "p2", URL: "/uploads/p2.png"},
		},
	}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("failed to save message: %v", err)
	}

	msgs, _, err := s.ListMessages(ctx, chat.ID, 1, 10)
	if err != nil {
		t.Fatalf("list messages failed: %v", err)
	}
	if len(msgs) != 1 || len(msgs[0].Attachments) != 2 {
		t.Fatalf("expected 1 message with 2 attachments, got %+v", msgs)
	}

	all, err := s.ListAttachments(ctx, chat.ID)
	if err != nil {
		t.Fatalf("list attachments failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 attachments for chat, got %d", len(all))
	}
}

func TestDeleteChat_RemovesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	chat, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}

	msg := &store.Message{
		ID:          utils.NewID(),
		ChatID:      chat.ID,
		SenderID:    alice.ID,
		Content:     "hello",
		Attachments: []store.Attachment{{PublicID: "p1", URL: "/uploads/p1.png"}},
	}
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("failed to save message: %v", err)
	}

	if err := s.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := s.GetChatByID(ctx, chat.ID); err == nil {
		t.Error("expected chat lookup to fail after delete")
	}
	count, err := s.CountMessagesByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no messages after delete, got %d", count)
	}
}

func TestFriendRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")

	req, err := s.CreateRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Found in either direction.
	if _, err := s.GetRequestBetween(ctx, alice.ID, bob.ID); err != nil {
		t.Errorf("expected request alice->bob: %v", err)
	}
	if _, err := s.GetRequestBetween(ctx, bob.ID, alice.ID); err != nil {
		t.Errorf("expected request bob->alice: %v", err)
	}

	pending, err := s.ListRequestsForReceiver(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].SenderID != alice.ID {
		t.Fatalf("unexpected pending requests: %+v", pending)
	}

	if err := s.DeleteRequest(ctx, req.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.GetRequestBetween(ctx, alice.ID, bob.ID); err == nil {
		t.Error("expected request lookup to fail after delete")
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	carol := createUser(t, s, "carol", "Carol")

	if _, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("failed to create direct chat: %v", err)
	}
	group, err := s.CreateChat(ctx, "trio", true, alice.ID, []string{alice.ID, bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("failed to create group chat: %v", err)
	}
	for i := 0; i < 3; i++ {
		msg := &store.Message{ID: utils.NewID(), ChatID: group.ID, SenderID: bob.ID, Content: "hi"}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("failed to save message: %v", err)
		}
	}

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.UserCount != 3 || stats.ChatCount != 2 || stats.GroupCount != 1 || stats.MessageCount != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCountMessagesSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice", "Alice")
	bob := createUser(t, s, "bob", "Bob")
	chat, err := s.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("failed to create chat: %v", err)
	}

	now := time.Now().UTC()
	ages := []time.Duration{
		time.Hour,           // today
		25 * time.Hour,      // yesterday
		26 * time.Hour,      // yesterday
		6 * 24 * time.Hour,  // oldest bucket
		10 * 24 * time.Hour, // outside the window
	}
	for _, age := range ages {
		msg := &store.Message{
			ID:        utils.NewID(),
			ChatID:    chat.ID,
			SenderID:  alice.ID,
			Content:   "hi",
			CreatedAt: now.Add(-age),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("failed to save message: %v", err)
		}
	}

	const days = 7
	buckets, err := s.CountMessagesSince(ctx, now.AddDate(0, 0, -(days-1)).Truncate(24*time.Hour), days)
	if err != nil {
		t.Fatalf("count since failed: %v", err)
	}
	if len(buckets) != days {
		t.Fatalf("expected %d buckets, got %d", days, len(buckets))
	}
	if buckets[days-1] != 1 {
		t.Errorf("expected 1 message today, got %d", buckets[days-1])
	}
	if buckets[days-2] != 2 {
		t.Errorf("expected 2 messages yesterday, got %d", buckets[days-2])
	}

	total := 0
	for _, n := range buckets {
		total += n
	}
	if total != 4 {
		t.Errorf("expected 4 messages inside the window, got %d", total)
	}
}
