package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateUser inserts a new user and returns it along with the freshly issued
// bearer token. Only the token's SHA-256 hash is stored; the plaintext token
// is shown once and cannot be recovered later.
func (s *Store) CreateUser(ctx context.Context, name string) (User, string, error) {
	token, err := newToken()
	if err != nil {
		return User{}, "", err
	}

	u := User{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, token_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, hashToken(token), u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return User{}, "", fmt.Errorf("inserting user: %w", err)
	}
	return u, token, nil
}

// UserIDForToken resolves a bearer token to its owning user id.
// Returns ErrNotFound for unknown tokens.
func (s *Store) UserIDForToken(ctx context.Context, token string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE token_hash = ?`, hashToken(token)).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up token: %w", err)
	}
	return id, nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		u.CreatedAt = t
		users = append(users, u)
	}
	return users, rows.Err()
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
