package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Language is one supported translation target.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported translation targets in display order.
var Languages = []Language{
	{"hi", "Hindi"},
	{"te", "Telugu"},
	{"ta", "Tamil"},
	{"kn", "Kannada"},
	{"ml", "Malayalam"},
	{"bn", "Bengali"},
	{"gu", "Gujarati"},
	{"mr", "Marathi"},
	{"pa", "Punjabi"},
	{"ur", "Urdu"},
}

// CaptionStyles lists the supported caption tones. "Default" adds no style
// suffix to the generation prompt.
var CaptionStyles = []string{
	"Default",
	"Concise",
	"Descriptive",
	"Humorous",
	"Poetic",
	"Professional",
	"Casual",
	"Story-like",
}

// LanguageName returns the display name for a language code, or "" if the
// code is not supported.
func LanguageName(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return ""
}

// ValidStyle reports whether style is one of the supported caption styles.
func ValidStyle(style string) bool {
	for _, s := range CaptionStyles {
		if s == style {
			return true
		}
	}
	return false
}

// secrets mirrors the optional secrets file. The file is checked before the
// environment so deployments can mount credentials without exporting them.
type secrets struct {
	OpenAIAPIKey string `yaml:"openai_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

// Config holds process-wide settings resolved once at startup.
type Config struct {
	OpenAIAPIKey string
	GeminiAPIKey string

	Provider    string
	OpenAIModel string
	OllamaModel string
	OllamaURL   string
	GeminiModel string

	EmbeddingModel string
	RAGResults     int

	UploadsDir   string
	SnapshotPath string
}

const defaultSecretsFile = "secrets.yaml"

// Load resolves configuration from the secrets file and the environment.
// A missing OpenAI API key is a fatal condition: captioning, translation
// and embedding all depend on it.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:       getenv("CAPTIONER_PROVIDER", "openai"),
		OpenAIModel:    getenv("OPENAI_MODEL", "gpt-4o"),
		OllamaModel:    getenv("OLLAMA_MODEL", "llava"),
		OllamaURL:      getenv("OLLAMA_URL", "http://localhost:11434"),
		GeminiModel:    getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		EmbeddingModel: getenv("CAPTIONER_EMBEDDING_MODEL", "text-embedding-3-small"),
		RAGResults:     1,
		UploadsDir:     getenv("CAPTIONER_UPLOADS_DIR", "uploads"),
		SnapshotPath:   getenv("CAPTIONER_SNAPSHOT_PATH", "captions.parquet"),
	}

	// Secrets file first, environment fallback second.
	sec, err := loadSecrets(getenv("CAPTIONER_SECRETS_FILE", defaultSecretsFile))
	if err != nil {
		return nil, err
	}
	cfg.OpenAIAPIKey = sec.OpenAIAPIKey
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.GeminiAPIKey = sec.GeminiAPIKey
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set in secrets file or environment")
	}

	return cfg, nil
}

// loadSecrets reads the secrets file if it exists. A missing file is not an
// error; a malformed one is.
func loadSecrets(path string) (secrets, error) {
	var sec secrets
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("failed to read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	return sec, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
