package session

import (
	"errors"
	"testing"

	"github.com/captionlab/captioner/internal/models"
)

func records(names ...string) []*models.ImageRecord {
	out := make([]*models.ImageRecord, len(names))
	for i, n := range names {
		out[i] = &models.ImageRecord{FileName: n, Raw: []byte(n), MIMEType: "image/png"}
	}
	return out
}

func TestReplaceBatchDiff(t *testing.T) {
	tests := []struct {
		name     string
		first    []string
		second   []string
		replaced bool
	}{
		{"same set same order", []string{"cat.png", "dog.png"}, []string{"cat.png", "dog.png"}, false},
		{"same set different order", []string{"cat.png", "dog.png"}, []string{"dog.png", "cat.png"}, false},
		{"same set different case", []string{"Cat.PNG"}, []string{"cat.png"}, false},
		{"added image", []string{"cat.png"}, []string{"cat.png", "dog.png"}, true},
		{"removed image", []string{"cat.png", "dog.png"}, []string{"cat.png"}, true},
		{"renamed image", []string{"cat.png"}, []string{"kitten.png"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState("s1")
			if !st.ReplaceBatch(records(tt.first...)) {
				t.Fatal("First batch load must always replace")
			}
			if got := st.ReplaceBatch(records(tt.second...)); got != tt.replaced {
				t.Errorf("Expected replaced=%v, got %v", tt.replaced, got)
			}
		})
	}
}

func TestReplaceBatchDiscardsCaptions(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("a cat", "Default", nil)})

	// Re-submitting the identical set keeps existing captions.
	st.ReplaceBatch(records("cat.png"))
	if got := st.Snapshot().Images[0].Captions; len(got) != 1 {
		t.Fatalf("Identical re-submit must not touch captions, got %d", len(got))
	}

	// A changed set discards everything, even for images that survive by name.
	st.ReplaceBatch(records("cat.png", "dog.png"))
	snap := st.Snapshot()
	if len(snap.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(snap.Images))
	}
	for _, img := range snap.Images {
		if len(img.Captions) != 0 {
			t.Errorf("Image %s should start with no captions after replacement", img.FileName)
		}
	}
}

func TestClearIsIdempotent(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.Clear()
	st.Clear()
	if st.Phase() != PhaseEmpty {
		t.Errorf("Expected EMPTY after clear, got %s", st.Phase())
	}
	if len(st.Snapshot().Images) != 0 {
		t.Error("Expected empty image list after clear")
	}
}

func TestAppendCaptionsUnknownImage(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("ghost.png", []models.Caption{models.NewCaption("x", "Default", nil)})

	if got := st.Snapshot().Images[0].Captions; len(got) != 0 {
		t.Errorf("Append to unknown image must be a no-op, got %d captions", len(got))
	}
}

func TestAppendCaptionsKeepsOrder(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{
		models.NewCaption("first", "Default", nil),
		models.NewCaption("second", "Default", nil),
	})
	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("third", "Default", nil)})

	caps := st.Snapshot().Images[0].Captions
	want := []string{"first", "second", "third"}
	if len(caps) != len(want) {
		t.Fatalf("Expected %d captions, got %d", len(want), len(caps))
	}
	for i, w := range want {
		if caps[i].Text != w {
			t.Errorf("Caption %d: expected %q, got %q", i, w, caps[i].Text)
		}
	}
}

func TestGetOrTranslateMemoizes(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("a cat", "Default", nil)})

	calls := 0
	fn := func(text string) (string, error) {
		calls++
		return "बिल्ली", nil
	}

	first, cached, err := st.GetOrTranslate("cat.png", 0, "hi", fn)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached {
		t.Error("First translation must not be a cache hit")
	}

	second, cached, err := st.GetOrTranslate("cat.png", 0, "hi", fn)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cached {
		t.Error("Second translation must be a cache hit")
	}
	if first != second {
		t.Errorf("Cached translation differs: %q vs %q", first, second)
	}
	if calls != 1 {
		t.Errorf("Translator must be called exactly once, got %d", calls)
	}

	// A different language translates again.
	if _, _, err := st.GetOrTranslate("cat.png", 0, "te", fn); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls after second language, got %d", calls)
	}
}

func TestGetOrTranslateSkipsFailedCaptions(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{models.NewFailedCaption("boom", "Default")})

	called := false
	_, _, err := st.GetOrTranslate("cat.png", 0, "hi", func(string) (string, error) {
		called = true
		return "", nil
	})
	if !errors.Is(err, ErrCaptionFailed) {
		t.Fatalf("Expected ErrCaptionFailed, got %v", err)
	}
	if called {
		t.Error("Translator must never be invoked for a failed caption")
	}
}

func TestGetOrTranslateErrors(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("a cat", "Default", nil)})

	fn := func(string) (string, error) { return "", nil }

	if _, _, err := st.GetOrTranslate("ghost.png", 0, "hi", fn); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound, got %v", err)
	}
	if _, _, err := st.GetOrTranslate("cat.png", 5, "hi", fn); !errors.Is(err, ErrCaptionNotFound) {
		t.Errorf("Expected ErrCaptionNotFound, got %v", err)
	}

	// A failing translate call caches nothing.
	boom := errors.New("network down")
	if _, _, err := st.GetOrTranslate("cat.png", 0, "hi", func(string) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("Expected translate error to propagate, got %v", err)
	}
	if _, cached, _ := st.GetOrTranslate("cat.png", 0, "hi", fn); cached {
		t.Error("Failed translation must not be cached")
	}
}

func TestPhase(t *testing.T) {
	st := NewState("s1")
	if st.Phase() != PhaseEmpty {
		t.Fatalf("New session should be EMPTY, got %s", st.Phase())
	}

	st.ReplaceBatch(records("cat.png", "dog.png"))
	if st.Phase() != PhaseLoadedNoCaptions {
		t.Fatalf("Expected LOADED_NO_CAPTIONS, got %s", st.Phase())
	}

	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("a cat", "Default", nil)})
	if st.Phase() != PhaseLoadedNoCaptions {
		t.Fatalf("One uncaptioned image left, expected LOADED_NO_CAPTIONS, got %s", st.Phase())
	}

	st.AppendCaptions("dog.png", []models.Caption{models.NewCaption("a dog", "Default", nil)})
	if st.Phase() != PhaseLoaded {
		t.Fatalf("Expected LOADED, got %s", st.Phase())
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	st := NewState("s1")
	st.ReplaceBatch(records("cat.png"))
	st.AppendCaptions("cat.png", []models.Caption{models.NewCaption("a cat", "Default", nil)})

	snap := st.Snapshot()
	snap.Images[0].Captions[0].Text = "mutated"
	snap.Images[0].Captions[0].Translations["hi"] = "mutated"

	fresh := st.Snapshot()
	if fresh.Images[0].Captions[0].Text != "a cat" {
		t.Error("Snapshot mutation leaked into the store")
	}
	if len(fresh.Images[0].Captions[0].Translations) != 0 {
		t.Error("Snapshot translation mutation leaked into the store")
	}
}
