package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// InsertChunks stores pre-split document chunks for an owner. Chunks arrive
// from the external ingestion path already split; embeddings may be nil and
// are filled in later by the lazy-embedding repair step.
func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, document_id, owner_id, chunk_text, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		var blob []byte
		if len(c.Embedding) > 0 {
			blob = encodeFloat32s(c.Embedding)
		}
		if _, err := stmt.Exec(id, c.DocumentID, c.OwnerID, c.Text, blob, createdAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting chunk %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ChunksByOwner returns every chunk owned by the given user. This is a full
// per-user scan with no paging; acceptable while per-user corpora stay small.
func (s *Store) ChunksByOwner(ctx context.Context, ownerID string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, owner_id, chunk_text, embedding, created_at
		FROM chunks WHERE owner_id = ? ORDER BY created_at ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		var createdAt string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.OwnerID, &c.Text, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if len(blob) > 0 {
			embedding, err := decodeFloat32s(blob)
			if err != nil {
				return nil, fmt.Errorf("decoding embedding for %s: %w", c.ID, err)
			}
			c.Embedding = embedding
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", c.ID, err)
		}
		c.CreatedAt = t
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// EmbeddingWriter is a narrowly-scoped write handle that can only patch the
// embedding column of chunks already confirmed to belong to one owner. It is
// the sole mutation path for chunks in the query pipeline; keeping it separate
// from the owner-scoped read path prevents cross-tenant writes.
type EmbeddingWriter struct {
	db      *sql.DB
	ownerID string
	allowed map[string]bool
}

// NewEmbeddingWriter builds a writer scoped to the given owner and the chunk
// ids in chunks that actually carry that owner id.
func (s *Store) NewEmbeddingWriter(ownerID string, chunks []Chunk) *EmbeddingWriter {
	allowed := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if c.OwnerID == ownerID {
			allowed[c.ID] = true
		}
	}
	return &EmbeddingWriter{db: s.db, ownerID: ownerID, allowed: allowed}
}

// Write persists the embedding vector for a single chunk. Chunk ids outside
// the writer's scope are rejected before any statement runs.
func (w *EmbeddingWriter) Write(ctx context.Context, chunkID string, embedding []float32) error {
	if !w.allowed[chunkID] {
		return fmt.Errorf("chunk %s is not writable by this handle", chunkID)
	}
	res, err := w.db.ExecContext(ctx,
		`UPDATE chunks SET embedding = ? WHERE id = ? AND owner_id = ?`,
		encodeFloat32s(embedding), chunkID, w.ownerID)
	if err != nil {
		return fmt.Errorf("writing embedding for %s: %w", chunkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
// Returns an error if the byte slice length is not a multiple of 4 (indicates data corruption).
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
