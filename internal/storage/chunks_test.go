package storage

import (
	"context"
	"math"
	"testing"

	"docqa/internal/similarity"
)

func TestChunkRoundTripWithoutEmbedding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")

	err := s.InsertChunks(ctx, []Chunk{
		{ID: "c1", DocumentID: "d1", OwnerID: u.ID, Text: "first chunk"},
	})
	if err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	chunks, err := s.ChunksByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ChunksByOwner failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Embedding != nil {
		t.Errorf("embedding = %v, want nil", chunks[0].Embedding)
	}
	if chunks[0].Text != "first chunk" {
		t.Errorf("text = %q, want %q", chunks[0].Text, "first chunk")
	}
}

func TestChunksByOwner_ScopedToOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice, _ := createTestUser(t, s, "alice")
	bob, _ := createTestUser(t, s, "bob")

	err := s.InsertChunks(ctx, []Chunk{
		{ID: "a1", DocumentID: "d1", OwnerID: alice.ID, Text: "alice chunk"},
		{ID: "b1", DocumentID: "d2", OwnerID: bob.ID, Text: "bob chunk"},
	})
	if err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	chunks, err := s.ChunksByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ChunksByOwner failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].ID != "a1" {
		t.Fatalf("chunks = %+v, want only a1", chunks)
	}
}

// A lazily-computed embedding written back and reloaded must score the same as
// the in-memory vector used right after computation.
func TestEmbeddingWriteBackRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := createTestUser(t, s, "alice")

	err := s.InsertChunks(ctx, []Chunk{
		{ID: "c1", DocumentID: "d1", OwnerID: u.ID, Text: "unembedded"},
	})
	if err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	chunks, err := s.ChunksByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("ChunksByOwner failed: %v", err)
	}

	vec := []float32{0.1, -0.25, 0.93, 0.004}
	query := []float32{0.2, 0.2, 0.7, -0.1}

	w := s.NewEmbeddingWriter(u.ID, chunks)
	if err := w.Write(ctx, "c1", vec); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reloaded, err := s.ChunksByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded) != 1 || len(reloaded[0].Embedding) != len(vec) {
		t.Fatalf("reloaded = %+v, want 1 chunk with %d-dim embedding", reloaded, len(vec))
	}

	before := similarity.Cosine(query, vec)
	after := similarity.Cosine(query, reloaded[0].Embedding)
	if math.Abs(before-after) > 1e-6 {
		t.Errorf("similarity drifted across persistence: before=%v after=%v", before, after)
	}
}

func TestEmbeddingWriter_RejectsForeignChunks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice, _ := createTestUser(t, s, "alice")
	bob, _ := createTestUser(t, s, "bob")

	err := s.InsertChunks(ctx, []Chunk{
		{ID: "b1", DocumentID: "d2", OwnerID: bob.ID, Text: "bob chunk"},
	})
	if err != nil {
		t.Fatalf("InsertChunks failed: %v", err)
	}

	bobChunks, err := s.ChunksByOwner(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ChunksByOwner failed: %v", err)
	}

	// A writer built for alice over bob's chunks must not accept any of them.
	w := s.NewEmbeddingWriter(alice.ID, bobChunks)
	if err := w.Write(ctx, "b1", []float32{1}); err == nil {
		t.Fatal("expected write to be rejected for foreign chunk")
	}

	// Bob's chunk is untouched.
	reloaded, err := s.ChunksByOwner(ctx, bob.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded[0].Embedding != nil {
		t.Errorf("embedding = %v, want nil", reloaded[0].Embedding)
	}
}

func TestEmbeddingWriter_UnknownID(t *testing.T) {
	s := openTestStore(t)
	u, _ := createTestUser(t, s, "alice")

	w := s.NewEmbeddingWriter(u.ID, nil)
	if err := w.Write(context.Background(), "nope", []float32{1}); err == nil {
		t.Fatal("expected error for id outside writer scope")
	}
}

func TestDecodeFloat32s_CorruptBlob(t *testing.T) {
	if _, err := decodeFloat32s([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for blob length not divisible by 4")
	}
}
