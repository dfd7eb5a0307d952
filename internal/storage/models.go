package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User is an account that owns documents and asks questions.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Chunk is a segment of a source document owned by exactly one user.
// Embedding is nil until the lazy-embedding repair step computes it.
type Chunk struct {
	ID         string
	DocumentID string
	OwnerID    string
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// UsageRecord counts questions asked by one user on one calendar day.
type UsageRecord struct {
	OwnerID       string
	Day           string
	QuestionsUsed int
}
