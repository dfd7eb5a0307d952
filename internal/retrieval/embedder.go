// Package retrieval layers batching and task-type selection over an
// embedding provider client.
package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docqa/internal/gemini"
)

const defaultConcurrency = 4

// EmbedClient is the provider call the Embedder fans out to.
type EmbedClient interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
}

// Embedder generates query and document embeddings with bounded concurrency.
type Embedder struct {
	client      EmbedClient
	concurrency int
}

// NewEmbedder creates an Embedder fanning out at most concurrency calls at
// once (default 4 if <= 0).
func NewEmbedder(client EmbedClient, concurrency int) *Embedder {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Embedder{client: client, concurrency: concurrency}
}

// EmbedQuery returns the embedding vector for a user question.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, text, gemini.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vec, nil
}

// EmbedDocuments returns one vector per input text, order-preserving. Texts
// are partitioned into consecutive groups of the configured concurrency;
// members of a group run concurrently, groups run sequentially, so the
// provider never sees more than `concurrency` simultaneous calls. Any single
// failure fails the whole batch with no partial results and no retry.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.concurrency {
		end := min(start+e.concurrency, len(texts))

		g, gCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				vec, err := e.client.Embed(gCtx, texts[i], gemini.TaskRetrievalDocument)
				if err != nil {
					return fmt.Errorf("embedding text %d: %w", i, err)
				}
				results[i] = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}
