// Package gemini is an HTTP client for the Gemini embedContent and
// generateContent endpoints.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Embedding task types. Providers weight document-indexing and query
// embeddings differently, so callers must pick the right one.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 60 * time.Second

	// Generation is deterministic-leaning: low fixed temperature and a
	// bounded output ceiling. Answers are grounded in retrieved excerpts,
	// not precision-critical sampling.
	generationTemperature = 0.1
	maxOutputTokens       = 1024
)

// Client communicates with the Gemini API.
type Client struct {
	apiKey     string
	baseURL    string
	embedModel string
	genModel   string
	httpClient *http.Client
}

// New creates a Client with the given API key and model names.
func New(apiKey, embedModel, genModel string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		embedModel: embedModel,
		genModel:   genModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewWithBaseURL(apiKey, embedModel, genModel, baseURL string) *Client {
	c := New(apiKey, embedModel, genModel)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type embedRequest struct {
	Content  content `json:"content"`
	TaskType string  `json:"taskType,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for a single text. taskType must be one
// of the Task* constants.
func (c *Client) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	req := embedRequest{
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskType,
	}

	var resp embedResponse
	url := fmt.Sprintf("%s/models/%s:embedContent", c.baseURL, c.embedModel)
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response contained no values")
	}
	return resp.Embedding.Values, nil
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends one generation request and returns the trimmed text of the
// first candidate. A response with no candidates yields an empty string, not
// an error; the caller decides how to handle an empty answer. The system
// instruction travels on the provider's dedicated channel, separate from the
// user content.
func (c *Client) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: userMessage}}}},
		GenerationConfig: generationConfig{
			Temperature:     generationTemperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	var resp generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.genModel)
	if err := c.post(ctx, url, req, &resp); err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Client) post(ctx context.Context, url string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
