package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/journi-app/journi/internal/models"
)

type memoryUsers struct {
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, errors.New("not found")
	}
	return user, nil
}

func (m *memoryUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, errors.New("not found")
}

func TestPasswordAuthenticator(t *testing.T) {
	a := NewPasswordAuthenticator(newMemoryUsers())
	ctx := context.Background()

	if _, err := a.Register(ctx, "meli@example.com", "Meli", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password: got err %v, want ErrWeakPassword", err)
	}

	user, err := a.Register(ctx, "meli@example.com", "Meli", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in plain text")
	}

	if _, err := a.Register(ctx, "meli@example.com", "Meli", "another password"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email: got err %v, want ErrEmailExists", err)
	}

	got, err := a.Authenticate(ctx, "meli@example.com", "correct horse battery")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("authenticated as %s, want %s", got.ID, user.ID)
	}

	if _, err := a.Authenticate(ctx, "meli@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got err %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Authenticate(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got err %v, want ErrInvalidCredentials", err)
	}
}

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	user := models.NewUser("andre@example.com", "Andre", "hash")

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	identity, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != user.ID || identity.Email != user.Email || identity.DisplayName != "Andre" {
		t.Errorf("identity = %+v", identity)
	}
}

func TestJWTManagerRejectsBadTokens(t *testing.T) {
	m := NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	other := NewJWTManager("a-completely-different-secret!!!", time.Hour)

	user := models.NewUser("andre@example.com", "Andre", "hash")
	token, err := other.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature: got err %v, want ErrInvalidToken", err)
	}
	if _, err := m.Verify(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got err %v, want ErrInvalidToken", err)
	}

	expired := NewJWTManager("test-secret-key-32-bytes-long!!!", -time.Minute)
	token, err = expired.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got err %v, want ErrInvalidToken", err)
	}
}
