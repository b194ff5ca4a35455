package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/code-snippets/internal/apperror"
	"github.com/sakif/code-snippets/internal/auth"
	"github.com/sakif/code-snippets/internal/model"
)

// mockUserRepo is an in-memory UserRepository. It mirrors the real
// repository's contract: duplicate emails conflict, lookups return the
// collapsed not-found error.
type mockUserRepo struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
	nextID  int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if _, taken := m.byEmail[user.Email]; taken {
		return apperror.DuplicateIdentity()
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.byID[user.ID] = &stored
	m.byEmail[user.Email] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, apperror.NotFoundOrForbidden()
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFoundOrForbidden()
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) DeleteUser(_ context.Context, id string) error {
	user, ok := m.byID[id]
	if !ok {
		return apperror.NotFoundOrForbidden()
	}
	delete(m.byEmail, user.Email)
	delete(m.byID, id)
	return nil
}

// newTestAuthService wires an AuthService with the mock repo, a real
// token service, and a small low-cost hash pool.
func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *auth.TokenService) {
	t.Helper()

	repo := newMockUserRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	hashes := auth.NewHashPool(auth.NewPasswordServiceForTest(4), 2, logger)
	t.Cleanup(hashes.Stop)

	return NewAuthService(repo, tokens, hashes, logger), repo, tokens
}

func TestRegister_ThenLogin(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.User.ID == "" {
		t.Fatal("Register() returned a user without an ID")
	}

	// The issued token's subject must be the new identity's ID.
	subject, err := tokens.Validate(reg.Token)
	if err != nil {
		t.Fatalf("Validate() on registration token error = %v", err)
	}
	if subject != reg.User.ID {
		t.Errorf("token subject = %q, want %q", subject, reg.User.ID)
	}

	login, err := svc.Login(ctx, "alice@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Login() after Register() error = %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("Login() user ID = %q, want %q", login.User.ID, reg.User.ID)
	}
}

func TestRegister_NeverStoresPlaintext(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	reg, err := svc.Register(context.Background(), "alice", "alice@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored := repo.byID[reg.User.ID]
	if stored.PasswordHash == "pw123456" {
		t.Fatal("password stored in plaintext")
	}
	if stored.PasswordHash == "" {
		t.Fatal("no password hash stored")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "other", "alice@x.com", "different-pw")
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("second Register() error = %v, want ErrDuplicate", err)
	}
}

func TestRegister_EmailIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Alice@X.com", "pw123456"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Same mailbox, different casing — still a duplicate.
	_, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456")
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("Register() error = %v, want ErrDuplicate", err)
	}

	// And login works with yet another casing.
	if _, err := svc.Login(ctx, "ALICE@x.com", "pw123456"); err != nil {
		t.Errorf("Login() with different email casing error = %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@x.com", "pw123456"},
		{"empty email", "alice", "", "pw123456"},
		{"invalid email", "alice", "not-an-email", "pw123456"},
		{"short password", "alice", "a@x.com", "short"},
		// bcrypt's 72-byte input limit: must fail validation up front,
		// not blow up later inside the hasher.
		{"long password", "alice", "a@x.com", strings.Repeat("x", MaxPasswordLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

// Unknown email and wrong password must be EXACTLY the same failure —
// same sentinel, same message. Anything else lets an attacker enumerate
// registered emails.
func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errUnknown := svc.Login(ctx, "nobody@x.com", "pw123456")
	_, errWrongPw := svc.Login(ctx, "alice@x.com", "wrong-password")

	if !errors.Is(errUnknown, apperror.ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrongPw, apperror.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("failure messages differ: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("Login() with empty credentials error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGetUserByID(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice", "alice@x.com", "pw123456")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUserByID(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
}
