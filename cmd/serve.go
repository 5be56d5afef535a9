package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/captionlab/captioner/internal/captioning"
	"github.com/captionlab/captioner/internal/config"
	"github.com/captionlab/captioner/internal/controller"
	"github.com/captionlab/captioner/internal/gemini"
	"github.com/captionlab/captioner/internal/handlers"
	"github.com/captionlab/captioner/internal/metric"
	"github.com/captionlab/captioner/internal/ollama"
	"github.com/captionlab/captioner/internal/openai"
	"github.com/captionlab/captioner/internal/providers"
	"github.com/captionlab/captioner/internal/retrieval"
	"github.com/captionlab/captioner/internal/session"
	"github.com/captionlab/captioner/internal/translate"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the captioning web service",
		Long: `Starts the Captioner web service on the specified port.

The service accepts image uploads, generates captions with a vision-capable
LLM, translates them on demand, and maintains a similarity index of past
captions for retrieval-augmented generation.`,
		Example: `  # Start server on default port 8888
  captioner serve

  # Start server on custom port
  captioner serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Missing credentials abort here, before any listener binds.
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			metrics := metric.NewMetrics()
			openaiClient := openai.New(cfg.OpenAIAPIKey)

			providerImpls := map[string]providers.Provider{
				"openai": openaiClient,
				"ollama": ollama.New(cfg.OllamaURL),
				"gemini": gemini.New(cfg.GeminiAPIKey),
			}
			model := cfg.OpenAIModel
			switch cfg.Provider {
			case "ollama":
				model = cfg.OllamaModel
			case "gemini":
				model = cfg.GeminiModel
			}

			generator := captioning.NewService(cfg.Provider, model, providerImpls, metrics)
			translator := translate.New(openaiClient, "", metrics)

			embedder := retrieval.NewOpenAIEmbedder(openaiClient, cfg.EmbeddingModel)
			index := retrieval.NewIndex(embedder, metrics)
			if err := index.LoadSnapshot(cfg.SnapshotPath); err != nil {
				return err
			}

			store := session.New()
			ctrl := controller.New(generator, translator, index, metrics, cfg.UploadsDir)
			handler := handlers.New(cfg, store, ctrl, index)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/upload", handler.HandleUpload)
			mux.HandleFunc("/api/retrieval", handler.HandleRetrieval)
			mux.Handle("/metrics", metrics.Handler())
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Captioner interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				if err := index.Save(cfg.SnapshotPath); err != nil {
					slog.Error("Failed to save retrieval snapshot", "err", err)
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
