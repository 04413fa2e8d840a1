package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klatch-chat/klatch-server/internal/store/sqlite"
)

const testAdminKey = "super-secret-admin-key"

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
		AdminTTL: 15 * time.Minute,
	}

	return NewService(st, jwtConfig, testAdminKey)
}

func TestRegister_RejectsInvalidUsername(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "ab", "Ab", "", "", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}

	// Should be validated after trimming whitespace.
	if _, _, err := svc.Register(ctx, " ab ", "Ab", "", "", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "abc", "Abc", "", "", "12345"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_RejectsMissingName(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "abc", "  ", "", "", "password123"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRegister_TrimsUsernameAndCreatesUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, " alice ", "Alice", "hi there", "", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if user.Username != "alice" {
		t.Fatalf("expected trimmed username, got %q", user.Username)
	}

	// Should collide because the stored username is trimmed.
	if _, _, err := svc.Register(ctx, "alice", "Alice Again", "", "", "password123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "Alice", "", "", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("expected login success, got %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("expected user Alice, got %q", user.Name)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected claims for %s, got %s", user.ID, claims.UserID)
	}
	if claims.Admin {
		t.Error("user token must not carry the admin flag")
	}

	if _, _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestVerifyUser(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "alice", "Alice", "", "", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, err := svc.VerifyUser(ctx, token)
	if err != nil {
		t.Fatalf("expected verification success, got %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := svc.VerifyUser(ctx, "not-a-token"); err == nil {
		t.Fatal("expected garbage token to fail")
	}
	if _, err := svc.VerifyUser(ctx, ""); err == nil {
		t.Fatal("expected empty token to fail")
	}
}

func TestAdminLogin(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.AdminLogin(testAdminKey)
	if err != nil {
		t.Fatalf("expected admin login success, got %v", err)
	}

	if err := svc.VerifyAdmin(token); err != nil {
		t.Fatalf("expected admin token to verify, got %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if !claims.Admin {
		t.Error("admin token must carry the admin flag")
	}

	if _, err := svc.AdminLogin("wrong-key"); !errors.Is(err, ErrInvalidAdminKey) {
		t.Fatalf("expected ErrInvalidAdminKey, got %v", err)
	}
}

func TestVerifyAdmin_RejectsUserToken(t *testing.T) {
	svc := newTestAuthService(t)

	token, _, err := svc.Register(context.Background(), "alice", "Alice", "", "", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.VerifyAdmin(token); err == nil {
		t.Fatal("expected user token to be rejected on admin check")
	}
}
