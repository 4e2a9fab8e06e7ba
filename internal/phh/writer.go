package phh

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/chanpoker/internal/table"
)

var _ table.HistorySink = (*Writer)(nil)

// Writer stores each hand as <dir>/<channel>/<hand>.phh.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// RecordHand implements table.HistorySink.
func (w *Writer) RecordHand(_ context.Context, rec table.HandRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, FromRecord(rec)); err != nil {
		return err
	}
	path := w.Path(rec.ChannelID, rec.HandID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("phh: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes(), 0o644)
}

// Path returns where a hand is written.
func (w *Writer) Path(channelID, handID string) string {
	return filepath.Join(w.dir, safeName(channelID), safeName(handID)+".phh")
}

func safeName(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// writeFileAtomic writes to a temporary file in the target directory and renames it
// into place, so readers see either no file or all of it.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("phh: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("phh: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("phh: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("phh: close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("phh: chmod: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("phh: rename: %w", err)
	}
	return nil
}
