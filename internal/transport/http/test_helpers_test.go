package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/config"
	"github.com/klatch-chat/klatch-server/internal/log"
	"github.com/klatch-chat/klatch-server/internal/realtime"
	"github.com/klatch-chat/klatch-server/internal/service/chats"
	"github.com/klatch-chat/klatch-server/internal/service/friends"
	"github.com/klatch-chat/klatch-server/internal/storage/files"
	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/store/sqlite"
)

const testAdminKey = "test-admin-key"

type testEnv struct {
	ts      *httptest.Server
	store   store.Store
	auth    *auth.Service
	gateway *realtime.Gateway
}

type testAppender struct {
	store store.Store
}

func (a testAppender) AppendMessage(ctx context.Context, m realtime.MessagePayload) error {
	msg := &store.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.Sender.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	return a.store.SaveMessage(ctx, msg)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	fileStore, err := files.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
		AdminTTL: 15 * time.Minute,
	}
	authService := auth.NewService(st, jwtConfig, testAdminKey)

	logger := log.Nop()
	gateway := realtime.NewGateway(testAppender{store: st}, logger)
	chatService := chats.New(st, gateway, fileStore)
	friendService := friends.New(st, gateway)

	server := NewServer(Deps{
		Gateway: gateway,
		Auth:    authService,
		Chats:   chatService,
		Friends: friendService,
		Store:   st,
		Files:   fileStore,
		Log:     logger,
	}, config.Config{
		Addr:                ":0",
		ReadHeaderTimeout:   time.Second,
		ShutdownTimeout:     time.Second,
		WSMessagesPerMinute: 0,
	})

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, gateway: gateway}
}

// register creates an account through the auth service and returns its token
// and user record.
func (e *testEnv) register(t *testing.T, username, name string) (string, *store.User) {
	t.Helper()

	token, user, err := e.auth.Register(context.Background(), username, name, "", "", "password123")
	if err != nil {
		t.Fatalf("failed to register %s: %v", username, err)
	}
	return token, user
}

// request performs a JSON API call with optional Bearer auth.
func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) wsURL() string {
	return strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
}
