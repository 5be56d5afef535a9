package retrieval

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// snapshotRow is the on-disk form of one indexed caption. The free-form
// metadata map is flattened to its two known keys.
type snapshotRow struct {
	Text        string    `parquet:"text"`
	SourceImage string    `parquet:"source_image"`
	Style       string    `parquet:"style"`
	Vector      []float32 `parquet:"vector,list"`
}

// Save writes the full index to a parquet snapshot at path.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	rows := make([]snapshotRow, 0, len(ix.docs))
	for _, doc := range ix.docs {
		rows = append(rows, snapshotRow{
			Text:        doc.Text,
			SourceImage: doc.Metadata["image"],
			Style:       doc.Metadata["style"],
			Vector:      doc.Vector,
		})
	}
	ix.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[snapshotRow](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write snapshot rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	slog.Info("Retrieval index snapshot saved", "path", path, "captions", len(rows))
	return nil
}

// LoadSnapshot restores the index from a parquet snapshot. A missing file is
// not an error; the index simply starts empty.
func (ix *Index) LoadSnapshot(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return fmt.Errorf("failed to open snapshot parquet: %w", err)
	}

	reader := parquet.NewGenericReader[snapshotRow](pf)
	defer reader.Close()

	loaded := 0
	rows := make([]snapshotRow, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			ix.mu.Lock()
			for _, row := range rows[:n] {
				ix.docs[row.Text] = document{
					Text: row.Text,
					Metadata: map[string]string{
						"image": row.SourceImage,
						"style": row.Style,
					},
					Vector: row.Vector,
				}
			}
			ix.mu.Unlock()
			loaded += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read snapshot rows: %w", err)
		}
	}

	slog.Info("Retrieval index snapshot loaded", "path", path, "captions", loaded)
	return nil
}
