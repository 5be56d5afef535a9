package models

import (
	"image"
	"time"
)

// ErrorMarker is the reserved prefix rendered in front of failed captions
// and translations in API responses. Internal logic branches on the Failed
// flag, never on this glyph.
const ErrorMarker = "❌ "

// Caption is one generated caption for an image, either a successful text
// or a tagged failure. Translations accumulate lazily per language code and
// are never removed or overwritten for the life of the caption.
type Caption struct {
	Text             string            `json:"text"`
	Failed           bool              `json:"failed"`
	ErrorReason      string            `json:"error_reason,omitempty"`
	Style            string            `json:"style"`
	Translations     map[string]string `json:"translations"`
	RetrievedContext []string          `json:"retrieved_context,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// NewCaption returns a successful caption with an empty translation cache.
func NewCaption(text, style string, context []string) Caption {
	return Caption{
		Text:             text,
		Style:            style,
		Translations:     map[string]string{},
		RetrievedContext: context,
		CreatedAt:        time.Now(),
	}
}

// NewFailedCaption returns a caption record marking a generation failure.
func NewFailedCaption(reason, style string) Caption {
	return Caption{
		Failed:       true,
		ErrorReason:  reason,
		Style:        style,
		Translations: map[string]string{},
		CreatedAt:    time.Now(),
	}
}

// Marker renders the caption for display: the text itself, or the reserved
// error marker followed by the failure reason.
func (c Caption) Marker() string {
	if c.Failed {
		return ErrorMarker + c.ErrorReason
	}
	return c.Text
}

// ImageRecord is one uploaded image in the active batch, together with every
// caption generated for it. Captions keep insertion order and are never
// deduplicated.
type ImageRecord struct {
	FileName  string    `json:"file_name"`
	ByteSize  int64     `json:"byte_size"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	MIMEType  string    `json:"mime_type,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Captions  []Caption `json:"captions"`

	// Bitmap is the owned, normalized copy of the decoded upload; Raw holds
	// the original encoded bytes sent to vision providers. Neither leaves
	// the process.
	Bitmap *image.RGBA `json:"-"`
	Raw    []byte      `json:"-"`
}

// Batch is the serialized view of a caption session returned by the API.
type Batch struct {
	SessionID string         `json:"session_id"`
	Phase     string         `json:"phase"`
	Images    []*ImageRecord `json:"images"`
	CreatedAt time.Time      `json:"created_at"`
}
