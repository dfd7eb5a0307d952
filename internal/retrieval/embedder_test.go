package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"docqa/internal/gemini"
)

// fakeEmbedClient records call concurrency and returns a vector derived from
// the input text so order preservation is checkable.
type fakeEmbedClient struct {
	mu         sync.Mutex
	inFlight   int
	maxSeen    int
	calls      int
	taskTypes  map[string]int
	failOnText string
}

func newFakeEmbedClient() *fakeEmbedClient {
	return &fakeEmbedClient{taskTypes: make(map[string]int)}
}

func (f *fakeEmbedClient) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	f.mu.Lock()
	f.inFlight++
	f.calls++
	f.taskTypes[taskType]++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	fail := f.failOnText != "" && f.failOnText == text
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if fail {
		return nil, errors.New("provider rejected text")
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbedDocuments_OrderPreserving(t *testing.T) {
	client := newFakeEmbedClient()
	e := NewEmbedder(client, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := e.EmbedDocuments(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedDocuments failed: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("len(vecs) = %d, want %d", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if v[0] != float32(len(texts[i])) {
			t.Errorf("vecs[%d] = %v, want [%d]", i, v, len(texts[i]))
		}
	}
	if client.taskTypes[gemini.TaskRetrievalDocument] != len(texts) {
		t.Errorf("document task type used %d times, want %d",
			client.taskTypes[gemini.TaskRetrievalDocument], len(texts))
	}
}

func TestEmbedDocuments_BoundedConcurrency(t *testing.T) {
	client := newFakeEmbedClient()
	e := NewEmbedder(client, 3)

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}
	if _, err := e.EmbedDocuments(context.Background(), texts); err != nil {
		t.Fatalf("EmbedDocuments failed: %v", err)
	}
	if client.maxSeen > 3 {
		t.Errorf("max concurrent calls = %d, want <= 3", client.maxSeen)
	}
}

func TestEmbedDocuments_AllOrNothing(t *testing.T) {
	client := newFakeEmbedClient()
	client.failOnText = "bad"
	e := NewEmbedder(client, 2)

	vecs, err := e.EmbedDocuments(context.Background(), []string{"ok1", "ok2", "bad", "ok3"})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if vecs != nil {
		t.Errorf("vecs = %v, want nil (no partial results)", vecs)
	}
}

func TestEmbedDocuments_Empty(t *testing.T) {
	e := NewEmbedder(newFakeEmbedClient(), 4)
	vecs, err := e.EmbedDocuments(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", vecs, err)
	}
}

func TestEmbedQuery_UsesQueryTaskType(t *testing.T) {
	client := newFakeEmbedClient()
	e := NewEmbedder(client, 4)

	if _, err := e.EmbedQuery(context.Background(), "question"); err != nil {
		t.Fatalf("EmbedQuery failed: %v", err)
	}
	if client.taskTypes[gemini.TaskRetrievalQuery] != 1 {
		t.Errorf("query task type used %d times, want 1", client.taskTypes[gemini.TaskRetrievalQuery])
	}
}
