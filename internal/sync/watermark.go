package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slawbackend/internal/toast"
)

// Watermark persists the end timestamp of the last committed sync. It only
// moves forward after a fully committed batch; a failed sync leaves it
// untouched so the next run re-covers the same range.
type Watermark struct {
	path string
}

func NewWatermark(path string) *Watermark {
	return &Watermark{path: path}
}

// Load returns the stored watermark. When no watermark exists (first run or
// unreadable file) it defaults to the start of the current day, so the first
// sync covers today's orders.
func (w *Watermark) Load(now time.Time) time.Time {
	data, err := os.ReadFile(w.path)
	if err == nil {
		if t, perr := toast.ParseTime(strings.TrimSpace(string(data))); perr == nil {
			return t
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Save stores the watermark in the upstream's timestamp layout.
func (w *Watermark) Save(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create watermark directory: %w", err)
	}
	if err := os.WriteFile(w.path, []byte(toast.FormatTime(t)), 0o644); err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}
