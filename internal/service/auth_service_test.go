package service

import (
	"errors"
	"testing"

	"bmrbridge/internal/config"
	"bmrbridge/internal/models"
)

type fakeAuthRepo struct {
	users  map[string]*models.User
	nextID int
	err    error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, nextID: 1}
}

func (f *fakeAuthRepo) Create(username, hash string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	id := f.nextID
	f.nextID++
	f.users[username] = &models.User{ID: id, Username: username, PasswordHash: hash}
	return id, nil
}

func (f *fakeAuthRepo) GetByUsername(username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[username], nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{SigningKey: "test-signing-key", TokenTTLMinutes: 5}
}

func TestAuthService_SignUpAndToken(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, testAuthConfig())

	id, err := svc.SignUp("alice", "s3cret")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d", id)
	}
	if repo.users["alice"].PasswordHash == "s3cret" {
		t.Fatal("password stored in plain text")
	}

	token, err := svc.GenerateToken("alice", "s3cret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != 1 {
		t.Fatalf("userID = %d", userID)
	}
}

func TestAuthService_Failures(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, testAuthConfig())

	if _, err := svc.SignUp("bob", "   "); err == nil {
		t.Fatal("expected error for blank password")
	}

	if _, err := svc.GenerateToken("ghost", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.SignUp("bob", "right"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := svc.GenerateToken("bob", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	if _, err := svc.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}

	// token signed with another key is rejected
	other := NewAuthService(repo, config.AuthConfig{SigningKey: "other-key", TokenTTLMinutes: 5})
	token, err := other.GenerateToken("bob", "right")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ParseToken(token); err == nil {
		t.Fatal("expected signature mismatch error")
	}
}
