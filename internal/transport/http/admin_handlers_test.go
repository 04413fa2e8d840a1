package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/utils"
)

// adminClient exchanges the secret key for the dashboard cookie and returns
// it for subsequent requests.
func adminCookie(t *testing.T, env *testEnv, key string) *http.Cookie {
	t.Helper()

	resp := env.request(t, http.MethodPost, "/api/v1/admin/verify", "", VerifyRequest{SecretKey: key})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 verifying, got %d", resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == adminCookieName {
			return cookie
		}
	}
	t.Fatal("expected admin cookie in verify response")
	return nil
}

func adminGet(t *testing.T, env *testEnv, cookie *http.Cookie, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAdminVerify(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/v1/admin/verify", "", VerifyRequest{SecretKey: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", resp.StatusCode)
	}

	cookie := adminCookie(t, env, testAdminKey)

	if resp := adminGet(t, env, cookie, "/api/v1/admin"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on admin check, got %d", resp.StatusCode)
	}
	if resp := adminGet(t, env, nil, "/api/v1/admin"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesRejectUserToken(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice", "Alice")
	cookie := &http.Cookie{Name: adminCookieName, Value: token}

	if resp := adminGet(t, env, cookie, "/api/v1/admin/users"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for user token in admin cookie, got %d", resp.StatusCode)
	}
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, alice := env.register(t, "alice", "Alice")
	_, bob := env.register(t, "bob", "Bob")
	_, carol := env.register(t, "carol", "Carol")

	group, err := env.store.CreateChat(ctx, "trio", true, alice.ID, []string{alice.ID, bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := env.store.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("create direct chat: %v", err)
	}
	for i := 0; i < 2; i++ {
		msg := &store.Message{ID: utils.NewID(), ChatID: group.ID, SenderID: bob.ID, Content: "hi"}
		if err := env.store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	cookie := adminCookie(t, env, testAdminKey)
	resp := adminGet(t, env, cookie, "/api/v1/admin/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats StatsResponse
	decodeBody(t, resp, &stats)
	if stats.UserCount != 3 || stats.ChatCount != 2 || stats.GroupCount != 1 || stats.MessageCount != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(stats.WeeklyMessage) != 7 {
		t.Fatalf("expected 7 chart buckets, got %d", len(stats.WeeklyMessage))
	}
	if stats.WeeklyMessage[6] != 2 {
		t.Errorf("expected today's bucket to hold 2 messages, got %d", stats.WeeklyMessage[6])
	}
}

func TestAdminUsersAndChats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, alice := env.register(t, "alice", "Alice")
	_, bob := env.register(t, "bob", "Bob")
	_, carol := env.register(t, "carol", "Carol")

	if _, err := env.store.CreateChat(ctx, "trio", true, alice.ID, []string{alice.ID, bob.ID, carol.ID}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := env.store.CreateChat(ctx, "Alice-Bob", false, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("create direct chat: %v", err)
	}

	cookie := adminCookie(t, env, testAdminKey)

	resp := adminGet(t, env, cookie, "/api/v1/admin/users")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var users struct {
		Users []AdminUserView `json:"users"`
	}
	decodeBody(t, resp, &users)
	if len(users.Users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users.Users))
	}
	for _, u := range users.Users {
		if u.Name == "Alice" {
			if u.Groups != 1 || u.Friends != 1 {
				t.Errorf("unexpected counters for alice: %+v", u)
			}
		}
		if u.Name == "Carol" && u.Friends != 0 {
			t.Errorf("carol has no direct chats: %+v", u)
		}
	}

	resp = adminGet(t, env, cookie, "/api/v1/admin/chats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var chatRows struct {
		Chats []AdminChatView `json:"chats"`
	}
	decodeBody(t, resp, &chatRows)
	if len(chatRows.Chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chatRows.Chats))
	}
	for _, row := range chatRows.Chats {
		if row.Name == "trio" && row.TotalMembers != 3 {
			t.Errorf("unexpected member total for trio: %+v", row)
		}
	}
}
