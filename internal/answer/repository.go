package answer

import (
	"context"

	"docqa/internal/storage"
)

// storeRepository adapts *storage.Store to the Repository interface.
type storeRepository struct {
	store *storage.Store
}

// NewStoreRepository wraps the SQLite store as the pipeline's chunk repository.
func NewStoreRepository(s *storage.Store) Repository {
	return storeRepository{store: s}
}

func (r storeRepository) ChunksByOwner(ctx context.Context, ownerID string) ([]storage.Chunk, error) {
	return r.store.ChunksByOwner(ctx, ownerID)
}

func (r storeRepository) NewEmbeddingWriter(ownerID string, chunks []storage.Chunk) EmbeddingWriter {
	return r.store.NewEmbeddingWriter(ownerID, chunks)
}
