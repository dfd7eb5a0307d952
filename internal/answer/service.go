// Package answer orchestrates one question/answer cycle: quota gating, lazy
// embedding repair, retrieval ranking, grounded prompting, and generation.
package answer

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"docqa/internal/prompt"
	"docqa/internal/quota"
	"docqa/internal/similarity"
	"docqa/internal/storage"
)

const (
	// MaxQuestionLen is the fixed ceiling on question length, in characters.
	MaxQuestionLen = 2000

	// NoDocumentsAnswer is returned verbatim when the user has no chunks at all.
	NoDocumentsAnswer = "You have not uploaded any documents yet. Upload a document and ask again."

	previewLen  = 160
	defaultTopK = 5
)

// Embedder produces query and document embeddings.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces the final answer text from a grounded prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// EmbeddingWriter persists lazily-computed chunk embeddings. Implementations
// must only accept chunk ids the repository handed out for the same owner.
type EmbeddingWriter interface {
	Write(ctx context.Context, chunkID string, embedding []float32) error
}

// Repository reads a user's chunks and hands out narrowly-scoped embedding
// writers for them.
type Repository interface {
	ChunksByOwner(ctx context.Context, ownerID string) ([]storage.Chunk, error)
	NewEmbeddingWriter(ownerID string, chunks []storage.Chunk) EmbeddingWriter
}

// Quota reserves question slots.
type Quota interface {
	Reserve(ctx context.Context, ownerID, day string) (quota.Reservation, error)
}

// Source points an answer back at the document a supporting chunk came from.
type Source struct {
	DocumentID  string  `json:"document_id"`
	PreviewText string  `json:"preview_text"`
	Similarity  float64 `json:"similarity"`
}

// Result is one completed question/answer cycle.
type Result struct {
	Answer             string   `json:"answer"`
	Sources            []Source `json:"sources"`
	QuestionsUsed      int      `json:"questions_used"`
	QuestionsRemaining int      `json:"questions_remaining"`
}

// Service runs the query pipeline.
type Service struct {
	quota     Quota
	embedder  Embedder
	repo      Repository
	generator Generator
	topK      int
}

// NewService wires the pipeline components. topK controls how many chunks are
// retrieved per question (default 5 if <= 0).
func NewService(q Quota, embedder Embedder, repo Repository, generator Generator, topK int) *Service {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Service{quota: q, embedder: embedder, repo: repo, generator: generator, topK: topK}
}

// Ask answers one question from the owner's documents.
//
// Quota is reserved before retrieval or generation is attempted, so a
// question that fails downstream still consumes a slot. All external calls
// are single-attempt; the first failure aborts the request as an
// UpstreamError carrying the reservation counters.
func (s *Service) Ask(ctx context.Context, ownerID, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, &ValidationError{Reason: "question must not be empty"}
	}
	if utf8.RuneCountInString(question) > MaxQuestionLen {
		return Result{}, &ValidationError{Reason: "question exceeds the maximum length"}
	}

	res, err := s.quota.Reserve(ctx, ownerID, quota.Today())
	if err != nil {
		return Result{}, &UpstreamError{Stage: "quota reservation", Err: err}
	}
	if !res.Allowed {
		return Result{}, &QuotaExceededError{Used: res.Used}
	}

	upstream := func(stage string, err error) error {
		return &UpstreamError{Stage: stage, Used: res.Used, Remaining: res.Remaining, Err: err}
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return Result{}, upstream("query embedding", err)
	}

	chunks, err := s.repo.ChunksByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, upstream("loading chunks", err)
	}
	if len(chunks) == 0 {
		return Result{
			Answer:             NoDocumentsAnswer,
			Sources:            []Source{},
			QuestionsUsed:      res.Used,
			QuestionsRemaining: res.Remaining,
		}, nil
	}

	if err := s.repairEmbeddings(ctx, ownerID, chunks); err != nil {
		return Result{}, upstream("embedding repair", err)
	}

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = c.Embedding
	}
	matches := similarity.TopK(queryVec, vectors, s.topK)
	if len(matches) == 0 {
		// Nothing comparable to the query; skip generation entirely and
		// answer with the fixed fallback sentence.
		return Result{
			Answer:             prompt.FallbackSentence,
			Sources:            []Source{},
			QuestionsUsed:      res.Used,
			QuestionsRemaining: res.Remaining,
		}, nil
	}

	excerpts := make([]prompt.Excerpt, len(matches))
	for i, m := range matches {
		c := chunks[m.Index]
		excerpts[i] = prompt.Excerpt{DocumentID: c.DocumentID, Text: c.Text, Score: m.Score}
	}
	system, user := prompt.Build(question, excerpts)

	text, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		return Result{}, upstream("generation", err)
	}
	if strings.TrimSpace(text) == "" {
		text = prompt.FallbackSentence
	}

	return Result{
		Answer:             text,
		Sources:            buildSources(chunks, matches),
		QuestionsUsed:      res.Used,
		QuestionsRemaining: res.Remaining,
	}, nil
}

// repairEmbeddings lazily embeds every chunk missing a vector and persists the
// results through a writer scoped to the loaded chunk ids. The in-memory
// chunks are patched too so ranking sees the fresh vectors. A batch failure
// fails the whole question; no answer is produced from a partial corpus.
func (s *Service) repairEmbeddings(ctx context.Context, ownerID string, chunks []storage.Chunk) error {
	var missing []int
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = chunks[idx].Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}

	writer := s.repo.NewEmbeddingWriter(ownerID, chunks)
	for i, idx := range missing {
		if err := writer.Write(ctx, chunks[idx].ID, vectors[i]); err != nil {
			return err
		}
		chunks[idx].Embedding = vectors[i]
	}
	slog.Debug("repaired missing embeddings", "owner", ownerID, "count", len(missing))
	return nil
}

// buildSources maps ranked matches to response sources, keeping at most one
// entry per distinct document id (the highest-ranked chunk wins).
func buildSources(chunks []storage.Chunk, matches []similarity.Match) []Source {
	seen := make(map[string]bool, len(matches))
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		c := chunks[m.Index]
		if seen[c.DocumentID] {
			continue
		}
		seen[c.DocumentID] = true
		sources = append(sources, Source{
			DocumentID:  c.DocumentID,
			PreviewText: preview(c.Text),
			Similarity:  m.Score,
		})
	}
	return sources
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "…"
}
