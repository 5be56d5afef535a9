// Package session holds the authoritative in-memory record of each caption
// session: the active image batch, every caption generated for it, and the
// per-caption translation cache.
package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/captionlab/captioner/internal/models"
)

// Phase describes where a session sits in its caption lifecycle.
type Phase string

const (
	// PhaseEmpty means no batch is loaded.
	PhaseEmpty Phase = "EMPTY"
	// PhaseLoadedNoCaptions means a batch is present and at least one image
	// still lacks captions.
	PhaseLoadedNoCaptions Phase = "LOADED_NO_CAPTIONS"
	// PhaseLoaded means every image in the batch has at least one caption.
	PhaseLoaded Phase = "LOADED"
)

var (
	// ErrImageNotFound is returned when an operation names an image that is
	// not part of the active batch.
	ErrImageNotFound = errors.New("image not found in active batch")
	// ErrCaptionNotFound is returned for an out-of-range caption index.
	ErrCaptionNotFound = errors.New("caption not found")
	// ErrCaptionFailed is returned when translation is requested for a
	// failed caption. Failed captions are never translated.
	ErrCaptionFailed = errors.New("caption failed, translation skipped")
)

// TranslateFunc produces the translation of a caption text. It is called at
// most once per (image, caption, language) for the life of the caption.
type TranslateFunc func(text string) (string, error)

// State is the session-scoped source of truth for one active batch. All
// methods are safe for concurrent use; mutations commit fully under the lock
// before any snapshot can observe them.
type State struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	images    []*models.ImageRecord
}

// NewState creates an empty session state.
func NewState(id string) *State {
	return &State{id: id, createdAt: time.Now()}
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// nameKey normalizes a file name for batch-identity comparison.
func nameKey(name string) string { return strings.ToLower(name) }

// sortedNameSet returns the normalized, sorted name set of a record list.
func sortedNameSet(records []*models.ImageRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = nameKey(r.FileName)
	}
	sort.Strings(names)
	return names
}

// ReplaceBatch compares the incoming upload selection against the stored
// batch by sorted name-set equality. On mismatch every current record is
// discarded and the incoming records become the new batch; captions always
// start empty. Returns whether a replacement occurred.
func (s *State) ReplaceBatch(records []*models.ImageRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := sortedNameSet(s.images)
	incoming := sortedNameSet(records)

	if equalNames(current, incoming) {
		return false
	}

	s.images = make([]*models.ImageRecord, len(records))
	for i, r := range records {
		fresh := *r
		fresh.Captions = nil
		s.images[i] = &fresh
	}
	return true
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clear discards the active batch. Idempotent.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
}

// AppendCaptions appends caption records to the named image in the order
// given. Unknown image names are a silent no-op.
func (s *State) AppendCaptions(fileName string, captions []models.Caption) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if nameKey(img.FileName) == nameKey(fileName) {
			img.Captions = append(img.Captions, captions...)
			return
		}
	}
}

// GetOrTranslate returns the cached translation for the caption at idx, or
// invokes fn once and caches the result. The second return value reports
// whether the translation was served from the cache. Failed captions
// short-circuit with ErrCaptionFailed before fn is ever called.
func (s *State) GetOrTranslate(fileName string, idx int, lang string, fn TranslateFunc) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var img *models.ImageRecord
	for _, candidate := range s.images {
		if nameKey(candidate.FileName) == nameKey(fileName) {
			img = candidate
			break
		}
	}
	if img == nil {
		return "", false, ErrImageNotFound
	}
	if idx < 0 || idx >= len(img.Captions) {
		return "", false, ErrCaptionNotFound
	}

	caption := &img.Captions[idx]
	if caption.Failed {
		return "", false, ErrCaptionFailed
	}
	if cached, ok := caption.Translations[lang]; ok {
		return cached, true, nil
	}

	translated, err := fn(caption.Text)
	if err != nil {
		return "", false, err
	}
	if caption.Translations == nil {
		caption.Translations = map[string]string{}
	}
	caption.Translations[lang] = translated
	return translated, false, nil
}

// ImagesLackingCaptions returns the file names of batch images with no
// captions yet, in batch order.
func (s *State) ImagesLackingCaptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, img := range s.images {
		if len(img.Captions) == 0 {
			names = append(names, img.FileName)
		}
	}
	return names
}

// ImageData returns the encoded bytes and MIME type for the named image.
func (s *State) ImageData(fileName string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, img := range s.images {
		if nameKey(img.FileName) == nameKey(fileName) {
			return img.Raw, img.MIMEType, nil
		}
	}
	return nil, "", ErrImageNotFound
}

// Phase reports the lifecycle phase of the session.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseLocked()
}

func (s *State) phaseLocked() Phase {
	if len(s.images) == 0 {
		return PhaseEmpty
	}
	for _, img := range s.images {
		if len(img.Captions) == 0 {
			return PhaseLoadedNoCaptions
		}
	}
	return PhaseLoaded
}

// Snapshot returns a deep copy of the session view. The copy is built under
// the lock, so it never exposes a half-updated batch.
func (s *State) Snapshot() models.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	images := make([]*models.ImageRecord, len(s.images))
	for i, img := range s.images {
		cp := *img
		cp.Bitmap = nil
		cp.Raw = nil
		cp.Captions = make([]models.Caption, len(img.Captions))
		for j, cap := range img.Captions {
			capCopy := cap
			capCopy.Translations = make(map[string]string, len(cap.Translations))
			for k, v := range cap.Translations {
				capCopy.Translations[k] = v
			}
			cp.Captions[j] = capCopy
		}
		images[i] = &cp
	}

	return models.Batch{
		SessionID: s.id,
		Phase:     string(s.phaseLocked()),
		Images:    images,
		CreatedAt: s.createdAt,
	}
}

// Store maps session IDs to their states. Sessions are volatile: nothing
// survives a process restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// New creates an empty session store.
func New() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Get returns the session state for the given ID.
func (s *Store) Get(sessionID string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, exists := s.sessions[sessionID]
	return state, exists
}

// GetOrCreate returns the existing session or registers a new empty one.
func (s *Store) GetOrCreate(sessionID string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, exists := s.sessions[sessionID]; exists {
		return state
	}
	state := NewState(sessionID)
	s.sessions[sessionID] = state
	return state
}

// GetAll returns a copy of the session map.
func (s *Store) GetAll() map[string]*State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*State, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete removes a session.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
