package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sjawhar/transcript-viewer/internal/meeting"
)

// Writer exports completed transcripts as markdown files, one per session.
type Writer struct {
	dir string
	mu  sync.Mutex
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Export(id, target string, endedAt time.Time, transcript meeting.Transcript) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", w.dir, err)
	}

	path := w.PathFor(id, endedAt)
	body := transcript.FormatMarkdown(target)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

func (w *Writer) PathFor(id string, endedAt time.Time) string {
	return filepath.Join(w.dir, endedAt.UTC().Format("2006-01-02")+"-"+id+".md")
}
