package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	database, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewService(database, &config.AuthConfig{
		JWTSecret: "test_secret",
		TokenTTL:  time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	auth, token, err := svc.Register(ctx, "ada@example.com", "hunter22", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("register returned empty token")
	}

	authID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if authID != auth.ID {
		t.Errorf("token subject = %s, want %s", authID, auth.ID)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "", "hunter22", nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty email: err = %v, want ErrValidation", err)
	}
	if _, _, err := svc.Register(ctx, "ada@example.com", "short", nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("short password: err = %v, want ErrValidation", err)
	}

	if _, _, err := svc.Register(ctx, "ada@example.com", "hunter22", nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "ada@example.com", "hunter22", nil); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: err = %v, want ErrEmailTaken", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token validated")
	}

	other := newTestService(t)
	_, token, err := other.Register(context.Background(), "eve@example.com", "hunter22", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	// Same secret across services, so cross-validation is fine; tamper with
	// the signature instead.
	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Error("tampered token validated")
	}
}

func TestResolveOrCreateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	nickname := "ada"
	auth, _, err := svc.Register(ctx, "ada@example.com", "hunter22", &nickname)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := svc.ResolveOrCreateUser(ctx, auth.ID)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Nickname != "ada" {
		t.Errorf("nickname = %s, want ada", first.Nickname)
	}

	second, err := svc.ResolveOrCreateUser(ctx, auth.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resolve created a second profile: %s vs %s", first.ID, second.ID)
	}
}

func TestResolveOrCreateUserNicknameFallback(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	auth, _, err := svc.Register(ctx, "grace@example.com", "hunter22", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.ResolveOrCreateUser(ctx, auth.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.Nickname != "grace@example.com" {
		t.Errorf("nickname = %s, want email fallback", user.Nickname)
	}
}

func TestResolveOrCreateUserUnknownAuth(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ResolveOrCreateUser(context.Background(), "not-a-uuid"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("malformed id: err = %v, want ErrValidation", err)
	}
	if _, err := svc.ResolveOrCreateUser(context.Background(), "c9bf9e57-1685-4c89-bafb-ff5af830be8a"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}
