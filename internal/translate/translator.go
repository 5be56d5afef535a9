package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/captionlab/captioner/internal/metric"
)

// ChatClient is the slice of the OpenAI client the translator needs.
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []map[string]string, maxTokens int) (string, error)
}

// Translator translates caption text into a target language. Each call is
// steered by a fixed one-shot example exchange so the model returns bare
// translated text in a natural register.
type Translator struct {
	client  ChatClient
	model   string
	metrics *metric.Metrics
}

// New creates a Translator using the given chat client.
func New(client ChatClient, model string, metrics *metric.Metrics) *Translator {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &Translator{client: client, model: model, metrics: metrics}
}

// exampleTranslation returns the assistant side of the one-shot example for
// the target language. Hindi and Telugu have real example translations; the
// rest fall back to the English source sentence.
func exampleTranslation(langCode string) string {
	switch langCode {
	case "te":
		return "నమస్కారం, మీరు ఎలా ఉన్నారు?"
	case "hi":
		return "नमस्ते, आप कैसे हैं?"
	default:
		return "Hello, how are you?"
	}
}

// Translate translates text into the target language. Callers must not pass
// failed-caption text; that filtering happens upstream.
func (t *Translator) Translate(ctx context.Context, text, langCode, langName string) (string, error) {
	messages := []map[string]string{
		{
			"role":    "system",
			"content": fmt.Sprintf("You are an expert translator specializing in translating English to high-quality, natural-sounding %s. Provide only the translated text and nothing else.", langName),
		},
		{
			"role":    "user",
			"content": fmt.Sprintf("Translate the following English text to %s: 'Hello, how are you?'", langName),
		},
		{
			"role":    "assistant",
			"content": exampleTranslation(langCode),
		},
		{
			"role":    "user",
			"content": fmt.Sprintf("Translate the following English text to %s: '%s'", langName, text),
		},
	}

	t.metrics.TranslatorCalls.Inc()

	translated, err := t.client.Chat(ctx, t.model, messages, 150)
	if err != nil {
		t.metrics.TranslatorErrors.Inc()
		slog.Warn("Translation failed", "lang", langCode, "error", err)
		return "", fmt.Errorf("translation to %s failed: %w", langName, err)
	}

	return translated, nil
}
