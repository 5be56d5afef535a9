package captioning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/captionlab/captioner/internal/metric"
	"github.com/captionlab/captioner/internal/models"
	"github.com/captionlab/captioner/internal/providers"
)

// Request describes one caption generation call.
type Request struct {
	Image    []byte
	MIMEType string
	Style    string
	Count    int
	Context  []string
}

// Service generates captions through a configured vision provider. Provider
// failures never escape Generate: they are returned as tagged failed caption
// records so the surrounding batch loop keeps going.
type Service struct {
	provider     string
	model        string
	providerImpl map[string]providers.Provider
	metrics      *metric.Metrics
}

// NewService creates a caption generation service dispatching to the named
// provider.
func NewService(provider, model string, impls map[string]providers.Provider, metrics *metric.Metrics) *Service {
	return &Service{
		provider:     provider,
		model:        model,
		providerImpl: impls,
		metrics:      metrics,
	}
}

// Generate produces up to req.Count captions for the image. The result is
// never empty: a provider failure yields a single failed caption record.
func (s *Service) Generate(ctx context.Context, req Request) []models.Caption {
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Count > 10 {
		req.Count = 10
	}

	s.metrics.GeneratorCalls.WithLabelValues(s.provider).Inc()

	raw, err := s.callProvider(ctx, req)
	if err != nil {
		s.metrics.GeneratorFailures.WithLabelValues(s.provider).Inc()
		slog.Warn("Caption generation failed", "provider", s.provider, "error", err)
		return []models.Caption{models.NewFailedCaption("Captioning error: "+err.Error(), req.Style)}
	}

	texts := CleanCaptions(raw, req.Count)
	if len(texts) == 0 {
		s.metrics.GeneratorFailures.WithLabelValues(s.provider).Inc()
		slog.Warn("Caption generation returned empty output", "provider", s.provider)
		return []models.Caption{models.NewFailedCaption("Captioning error: model returned no output", req.Style)}
	}

	captions := make([]models.Caption, 0, len(texts))
	for _, text := range texts {
		captions = append(captions, models.NewCaption(text, req.Style, req.Context))
	}

	slog.Info("Captions generated", "provider", s.provider, "requested", req.Count, "returned", len(captions))
	return captions
}

func (s *Service) callProvider(ctx context.Context, req Request) (string, error) {
	impl, ok := s.providerImpl[s.provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider: %s", s.provider)
	}

	return impl.GenerateFromImage(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0.7,
		Prompt:      BuildPrompt(req.Style, req.Count, req.Context),
		ImageData:   req.Image,
		MIMEType:    req.MIMEType,
		MaxTokens:   300 * req.Count,
	})
}

// BuildPrompt constructs the generation prompt from the requested style,
// caption count and any retrieved context captions.
func BuildPrompt(style string, count int, context []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d distinct captions for this image.", count)

	if style != "" && style != "Default" {
		fmt.Fprintf(&b, " The captions should have a %s tone.", strings.ToLower(style))
	}

	if count > 1 {
		b.WriteString(" Provide each caption on a new line, prefixed with a number (e.g., '1. Caption one\\n2. Caption two').")
	} else {
		b.WriteString(" Provide a single, perfect, and descriptive caption, aiming for at least one full sentence. Focus on the main subject and action.")
	}

	if len(context) > 0 {
		b.WriteString("\n\nFor inspiration, here are captions previously written for similar images:\n")
		for _, c := range context {
			b.WriteString("- " + c + "\n")
		}
	}

	return b.String()
}
