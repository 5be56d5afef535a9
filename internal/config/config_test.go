package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSecretsFileBeforeEnv(t *testing.T) {
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.yaml")
	content := "openai_api_key: file-openai-key\ngemini_api_key: file-gemini-key\n"
	if err := os.WriteFile(secretsPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	t.Setenv("CAPTIONER_SECRETS_FILE", secretsPath)
	t.Setenv("OPENAI_API_KEY", "env-openai-key")
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.OpenAIAPIKey != "file-openai-key" {
		t.Errorf("Expected secrets file key to win, got %s", cfg.OpenAIAPIKey)
	}
	if cfg.GeminiAPIKey != "file-gemini-key" {
		t.Errorf("Expected secrets file key to win, got %s", cfg.GeminiAPIKey)
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("CAPTIONER_SECRETS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("OPENAI_API_KEY", "env-openai-key")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.OpenAIAPIKey != "env-openai-key" {
		t.Errorf("Expected environment key, got %s", cfg.OpenAIAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("Gemini key should be empty, got %s", cfg.GeminiAPIKey)
	}
}

func TestLoadMissingOpenAIKey(t *testing.T) {
	t.Setenv("CAPTIONER_SECRETS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when no OpenAI key is available")
	}
}

func TestLoadMalformedSecretsFile(t *testing.T) {
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte("{not yaml"), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	t.Setenv("CAPTIONER_SECRETS_FILE", secretsPath)
	t.Setenv("OPENAI_API_KEY", "env-openai-key")

	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed secrets file")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CAPTIONER_SECRETS_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("OPENAI_API_KEY", "env-openai-key")
	t.Setenv("CAPTIONER_PROVIDER", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Expected default provider openai, got %s", cfg.Provider)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("Expected default model gpt-4o, got %s", cfg.OpenAIModel)
	}
	if cfg.RAGResults != 1 {
		t.Errorf("Expected 1 retrieval result by default, got %d", cfg.RAGResults)
	}
}

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"hi", "Hindi"},
		{"te", "Telugu"},
		{"ur", "Urdu"},
		{"fr", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LanguageName(tt.code); got != tt.expected {
			t.Errorf("LanguageName(%q): expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

func TestValidStyle(t *testing.T) {
	if !ValidStyle("Default") {
		t.Error("Default should be a valid style")
	}
	if !ValidStyle("Poetic") {
		t.Error("Poetic should be a valid style")
	}
	if ValidStyle("poetic") {
		t.Error("Style matching is case-sensitive")
	}
	if ValidStyle("Sarcastic") {
		t.Error("Unknown styles should be rejected")
	}
}
