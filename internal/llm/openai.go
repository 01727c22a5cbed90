// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/trendscope/internal/httputil"
	"github.com/pdiddy/trendscope/pkg/types"
)

// OpenAI API endpoints. Package-level vars for test substitution.
var (
	openaiChatURL  = "https://api.openai.com/v1/chat/completions"
	openaiEmbedURL = "https://api.openai.com/v1/embeddings"
)

// OpenAIBackend calls the OpenAI API for both text generation and
// embeddings. It satisfies TextBackend and EmbedBackend.
type OpenAIBackend struct {
	Client *http.Client
	Config types.AIConfig
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first choice's
// text.
func (b *OpenAIBackend) Complete(ctx context.Context, system, user string) (string, error) {
	model := b.Config.Model
	if model == "" {
		model = "gpt-4"
	}

	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body, err := b.post(ctx, openaiChatURL, chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat response contains no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed requests one embedding per input text. The response is reassembled
// by index so the output order always matches the input order.
func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := b.Config.EmbeddingModel
	if model == "" {
		model = "text-embedding-3-small"
	}

	body, err := b.post(ctx, openaiEmbedURL, embedRequest{Model: model, Input: texts})
	if err != nil {
		return nil, &types.EmbeddingError{Err: err}
	}

	var er embedResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, &types.EmbeddingError{Err: fmt.Errorf("parsing embeddings response: %w", err)}
	}
	if len(er.Data) != len(texts) {
		return nil, &types.EmbeddingError{Err: fmt.Errorf("got %d embeddings for %d inputs", len(er.Data), len(texts))}
	}

	vectors := make([][]float64, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, &types.EmbeddingError{Err: fmt.Errorf("embedding index %d out of range", d.Index)}
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// post sends a JSON request to the OpenAI API and returns the response body.
func (b *OpenAIBackend) post(ctx context.Context, apiURL string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", b.Config.UserAgent)
	req.Header.Set("Authorization", "Bearer "+b.Config.APIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API returned HTTP %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return buf.Bytes(), nil
}
