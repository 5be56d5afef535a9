package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/captionlab/captioner/internal/providers"
)

const apiBase = "https://api.openai.com/v1"

// OpenAI is a provider for OpenAI vision, chat and embedding endpoints.
type OpenAI struct {
	apiKey     string
	httpClient *http.Client
}

// New returns a new OpenAI provider.
func New(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// GenerateFromImage sends the prompt together with the base64-encoded image
// to the chat completions endpoint and returns the raw model text.
func (o *OpenAI) GenerateFromImage(ctx context.Context, config providers.Config) (string, error) {
	base64Image := base64.StdEncoding.EncodeToString(config.ImageData)
	mimeType := config.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": config.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": config.Prompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url":    fmt.Sprintf("data:%s;base64,%s", mimeType, base64Image),
							"detail": "high",
						},
					},
				},
			},
		},
		"max_tokens":  config.MaxTokens,
		"temperature": config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	return o.chatCompletion(ctx, requestBody)
}

// Chat sends a plain multi-turn conversation to the chat completions
// endpoint. Used by the translator for its few-shot steering exchange.
func (o *OpenAI) Chat(ctx context.Context, model string, messages []map[string]string, maxTokens int) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	return o.chatCompletion(ctx, requestBody)
}

func (o *OpenAI) chatCompletion(ctx context.Context, requestBody []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", apiBase+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

// Embeddings returns one embedding vector per input text, in input order.
func (o *OpenAI) Embeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model": model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiBase+"/embeddings", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
