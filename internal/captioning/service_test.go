package captioning

import (
	"context"
	"errors"
	"testing"

	"github.com/captionlab/captioner/internal/metric"
	"github.com/captionlab/captioner/internal/providers"
)

type stubProvider struct {
	response string
	err      error
	lastCfg  providers.Config
	calls    int
}

func (p *stubProvider) GenerateFromImage(ctx context.Context, config providers.Config) (string, error) {
	p.calls++
	p.lastCfg = config
	return p.response, p.err
}

func newTestService(p providers.Provider) *Service {
	return NewService("openai", "gpt-4o", map[string]providers.Provider{"openai": p}, metric.NewMetrics())
}

func TestGenerateSuccess(t *testing.T) {
	stub := &stubProvider{response: "1. A red kite.\n2. A windy day."}
	svc := newTestService(stub)

	captions := svc.Generate(context.Background(), Request{
		Image: []byte("fake"),
		Style: "Humorous",
		Count: 2,
	})

	if len(captions) != 2 {
		t.Fatalf("Expected 2 captions, got %d", len(captions))
	}
	for i, c := range captions {
		if c.Failed {
			t.Errorf("Caption %d unexpectedly failed: %s", i, c.ErrorReason)
		}
		if c.Style != "Humorous" {
			t.Errorf("Caption %d has style %q, expected Humorous", i, c.Style)
		}
		if len(c.Translations) != 0 {
			t.Errorf("Caption %d translations should start empty", i)
		}
	}
	if captions[0].Text != "A red kite." {
		t.Errorf("Unexpected first caption: %q", captions[0].Text)
	}
	if stub.lastCfg.MaxTokens != 600 {
		t.Errorf("Expected max tokens 600 for count=2, got %d", stub.lastCfg.MaxTokens)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	stub := &stubProvider{err: errors.New("quota exceeded")}
	svc := newTestService(stub)

	captions := svc.Generate(context.Background(), Request{Image: []byte("fake"), Count: 3})

	if len(captions) != 1 {
		t.Fatalf("Expected a single failed caption, got %d", len(captions))
	}
	if !captions[0].Failed {
		t.Fatal("Expected caption to be marked failed")
	}
	if captions[0].Marker() == "" || captions[0].Marker() == captions[0].Text {
		t.Errorf("Failed caption should render with the error marker, got %q", captions[0].Marker())
	}
}

func TestGenerateEmptyOutput(t *testing.T) {
	stub := &stubProvider{response: "   "}
	svc := newTestService(stub)

	captions := svc.Generate(context.Background(), Request{Image: []byte("fake"), Count: 2})

	if len(captions) != 1 || !captions[0].Failed {
		t.Fatalf("Expected one failed caption for blank output, got %+v", captions)
	}
}

func TestGenerateCountBounds(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		maxTokens int
	}{
		{"zero clamps to one", 0, 300},
		{"negative clamps to one", -4, 300},
		{"over ten clamps to ten", 25, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubProvider{response: "A caption."}
			svc := newTestService(stub)

			svc.Generate(context.Background(), Request{Image: []byte("fake"), Count: tt.count})
			if stub.lastCfg.MaxTokens != tt.maxTokens {
				t.Errorf("Expected max tokens %d, got %d", tt.maxTokens, stub.lastCfg.MaxTokens)
			}
		})
	}
}

func TestGenerateUnknownProvider(t *testing.T) {
	svc := NewService("nonexistent", "m", map[string]providers.Provider{}, metric.NewMetrics())

	captions := svc.Generate(context.Background(), Request{Image: []byte("fake"), Count: 1})
	if len(captions) != 1 || !captions[0].Failed {
		t.Fatalf("Expected one failed caption for unknown provider, got %+v", captions)
	}
}
