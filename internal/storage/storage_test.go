package storage

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, name string) (User, string) {
	t.Helper()
	u, token, err := s.CreateUser(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", name, err)
	}
	return u, token
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", dir, err)
	}
	defer s.Close()

	if _, _, err := s.CreateUser(context.Background(), "disk"); err != nil {
		t.Fatalf("CreateUser on disk store failed: %v", err)
	}
}

func TestCreateUserAndResolveToken(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, token := createTestUser(t, s, "alice")
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	id, err := s.UserIDForToken(ctx, token)
	if err != nil {
		t.Fatalf("UserIDForToken failed: %v", err)
	}
	if id != u.ID {
		t.Errorf("resolved id = %q, want %q", id, u.ID)
	}
}

func TestUserIDForToken_Unknown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.UserIDForToken(context.Background(), "deadbeef")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListUsers(t *testing.T) {
	s := openTestStore(t)
	createTestUser(t, s, "alice")
	createTestUser(t, s, "bob")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
}
