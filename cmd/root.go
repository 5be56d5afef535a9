package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captioner",
		Short: "Image captioning service with LLM-powered caption generation and translation",
		Long: `Captioner generates natural-language captions for uploaded images using
vision-capable LLMs (OpenAI, Ollama or Gemini), optionally translates them
into a target language, and can retrieve similar past captions from a
similarity index to steer new generations.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())

	return cmd
}
