package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
)

type Storage struct {
	// ChunkSize is the buffer used to stream bodies to disk.
	// Zero means models.DefaultChunkSize.
	ChunkSize int
}

// EnsureDir creates dir and any missing parents. Creating a directory that
// already exists, including one created concurrently by another worker, is
// success.
func (s *Storage) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		// MkdirAll can lose a race with a sibling creating the same path.
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	return nil
}

// WriteStream copies r into filePath in fixed-size chunks, creating parent
// directories and overwriting any existing file. A partially written file is
// removed on failure.
func (s *Storage) WriteStream(filePath string, r io.Reader) (int64, error) {
	if err := s.EnsureDir(filepath.Dir(filePath)); err != nil {
		return 0, err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("error creating file: %w", err)
	}

	chunk := s.ChunkSize
	if chunk <= 0 {
		chunk = models.DefaultChunkSize
	}
	written, copyErr := io.CopyBuffer(onlyWriter{f}, onlyReader{r}, make([]byte, chunk))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(filePath)
		return written, fmt.Errorf("error writing file: %w", err)
	}
	return written, nil
}

// onlyReader and onlyWriter hide WriterTo/ReaderFrom so io.CopyBuffer
// honours the chunk size.
type onlyReader struct {
	io.Reader
}

type onlyWriter struct {
	io.Writer
}
