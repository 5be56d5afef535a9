package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/captionlab/captioner/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini.
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider.
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

// GenerateFromImage sends the prompt and image to Gemini and returns the raw
// model text.
func (g *Gemini) GenerateFromImage(ctx context.Context, config providers.Config) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))

	format := strings.TrimPrefix(config.MIMEType, "image/")
	if format == "" {
		format = "png"
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(config.Prompt),
		genai.ImageData(format, config.ImageData),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}
