// Package controller orchestrates caption sessions: it decides when the
// stored batch needs replacing, runs generation for images lacking captions,
// and builds the view returned to clients. Each event is handled
// synchronously end to end; state mutations commit fully before the next
// snapshot is taken.
package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/captionlab/captioner/internal/captioning"
	"github.com/captionlab/captioner/internal/config"
	"github.com/captionlab/captioner/internal/ingest"
	"github.com/captionlab/captioner/internal/metric"
	"github.com/captionlab/captioner/internal/models"
	"github.com/captionlab/captioner/internal/retrieval"
	"github.com/captionlab/captioner/internal/session"
)

// Generator is the caption generation boundary.
type Generator interface {
	Generate(ctx context.Context, req captioning.Request) []models.Caption
}

// Translator is the translation boundary.
type Translator interface {
	Translate(ctx context.Context, text, langCode, langName string) (string, error)
}

// Retriever is the caption similarity index boundary.
type Retriever interface {
	Add(ctx context.Context, text string, metadata map[string]string) error
	Query(ctx context.Context, text string, k int) ([]retrieval.Result, error)
}

// GenerateOptions carry the sidebar-style knobs for one generation event.
type GenerateOptions struct {
	Style      string
	Count      int
	RAGEnabled bool
	RAGResults int
}

// Controller drives session state transitions.
type Controller struct {
	generator  Generator
	translator Translator
	index      Retriever
	metrics    *metric.Metrics
	uploadsDir string
}

// New creates a controller over the given collaborators. Uploaded images are
// persisted under uploadsDir for static serving; an empty dir disables that.
func New(generator Generator, translator Translator, index Retriever, metrics *metric.Metrics, uploadsDir string) *Controller {
	return &Controller{
		generator:  generator,
		translator: translator,
		index:      index,
		metrics:    metrics,
		uploadsDir: uploadsDir,
	}
}

// UploadChanged handles a change in the upload selection for one session.
//
// An empty selection clears any stored batch. A selection whose sorted
// name set matches the stored batch changes nothing and triggers no
// generation. Otherwise the batch is replaced wholesale and captions are
// generated once per image, in upload order; a failing image gets failed
// caption records and the loop continues.
func (c *Controller) UploadChanged(ctx context.Context, st *session.State, files []ingest.File, opts GenerateOptions) (models.Batch, error) {
	if len(files) == 0 {
		st.Clear()
		return st.Snapshot(), nil
	}

	files = ingest.DisambiguateNames(files)

	records := make([]*models.ImageRecord, 0, len(files))
	for _, f := range files {
		decoded, err := ingest.Decode(f)
		if err != nil {
			return models.Batch{}, fmt.Errorf("rejected upload: %w", err)
		}
		record := &models.ImageRecord{
			FileName: decoded.Name,
			ByteSize: decoded.Size,
			Width:    decoded.Width,
			Height:   decoded.Height,
			MIMEType: decoded.MIMEType,
			Bitmap:   decoded.Bitmap,
			Raw:      decoded.Raw,
		}
		if c.uploadsDir != "" {
			stored, serr := ingest.SaveUpload(c.uploadsDir, f)
			if serr != nil {
				slog.Warn("Failed to persist upload copy", "image", f.Name, "error", serr)
			} else {
				record.ImagePath = stored
				record.ImageURL = "/static/uploads/" + stored
			}
		}
		records = append(records, record)
	}

	replaced := st.ReplaceBatch(records)
	if !replaced {
		return st.Snapshot(), nil
	}

	c.metrics.BatchReplacements.Inc()
	slog.Info("Batch replaced", "session", st.ID(), "images", len(records))

	for _, name := range st.ImagesLackingCaptions() {
		c.generateFor(ctx, st, name, opts)
	}

	return st.Snapshot(), nil
}

// GenerateMore appends another round of captions to one image of the active
// batch, using the current options.
func (c *Controller) GenerateMore(ctx context.Context, st *session.State, fileName string, opts GenerateOptions) (models.Batch, error) {
	if _, _, err := st.ImageData(fileName); err != nil {
		return models.Batch{}, err
	}
	c.generateFor(ctx, st, fileName, opts)
	return st.Snapshot(), nil
}

// ClearAll empties the session batch unconditionally.
func (c *Controller) ClearAll(st *session.State) models.Batch {
	st.Clear()
	slog.Info("Session cleared", "session", st.ID())
	return st.Snapshot()
}

// Render builds the current view. When langCode is non-empty the per-caption
// translation cache for that language is filled lazily: the translator is
// called only for captions that have no cached entry yet, and never for
// failed captions.
func (c *Controller) Render(ctx context.Context, st *session.State, langCode string) (models.Batch, error) {
	if langCode == "" {
		return st.Snapshot(), nil
	}

	langName := config.LanguageName(langCode)
	if langName == "" {
		return models.Batch{}, fmt.Errorf("unsupported language code: %s", langCode)
	}

	for _, img := range st.Snapshot().Images {
		for idx := range img.Captions {
			_, cached, err := st.GetOrTranslate(img.FileName, idx, langCode, func(text string) (string, error) {
				translated, terr := c.translator.Translate(ctx, text, langCode, langName)
				if terr != nil {
					// Per-call failures are cached as marker text so they
					// surface once and are never retried.
					return models.ErrorMarker + "Translation error: " + terr.Error(), nil
				}
				return translated, nil
			})
			if err != nil && err != session.ErrCaptionFailed {
				return models.Batch{}, err
			}
			if cached {
				c.metrics.TranslationHits.Inc()
			}
		}
	}

	return st.Snapshot(), nil
}

// generateFor runs one generation call for one image: retrieval context
// first when enabled, then the generator, then the append and the index
// update. Failed captions are appended like any other but are never
// inserted into the retrieval index.
func (c *Controller) generateFor(ctx context.Context, st *session.State, fileName string, opts GenerateOptions) {
	raw, mimeType, err := st.ImageData(fileName)
	if err != nil {
		slog.Warn("Image disappeared before generation", "session", st.ID(), "image", fileName)
		return
	}

	var ragContext []string
	if opts.RAGEnabled {
		k := opts.RAGResults
		if k < 1 {
			k = 1
		}
		results, qerr := c.index.Query(ctx, fileName, k)
		if qerr != nil {
			slog.Warn("Retrieval query failed, generating without context", "image", fileName, "error", qerr)
		} else {
			for _, r := range results {
				ragContext = append(ragContext, r.Text)
			}
		}
	}

	captions := c.generator.Generate(ctx, captioning.Request{
		Image:    raw,
		MIMEType: mimeType,
		Style:    opts.Style,
		Count:    opts.Count,
		Context:  ragContext,
	})

	st.AppendCaptions(fileName, captions)

	for _, caption := range captions {
		if caption.Failed {
			continue
		}
		meta := map[string]string{"image": fileName, "style": opts.Style}
		if err := c.index.Add(ctx, caption.Text, meta); err != nil {
			slog.Warn("Failed to index caption", "image", fileName, "error", err)
		}
	}
}
