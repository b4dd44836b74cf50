package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Saghetti0/obsidian-publish-downloader/models"
)

func TestEnsureDirConcurrent(t *testing.T) {
	s := &Storage{}
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.EnsureDir(dir)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("EnsureDir returned error: %v", err)
		}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestEnsureDirOverFile(t *testing.T) {
	s := &Storage{}
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureDir(file); err == nil {
		t.Error("expected error creating a directory over a regular file")
	}
}

// countingReader records the size of every Read call it serves.
type countingReader struct {
	r     io.Reader
	reads []int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads = append(c.reads, len(p))
	return c.r.Read(p)
}

func TestWriteStreamUsesChunkSize(t *testing.T) {
	s := &Storage{ChunkSize: 8}
	path := filepath.Join(t.TempDir(), "nested", "out.bin")
	src := &countingReader{r: strings.NewReader(strings.Repeat("x", 30))}

	n, err := s.WriteStream(path, src)
	if err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	if n != 30 {
		t.Errorf("written = %d, want 30", n)
	}
	for _, size := range src.reads {
		if size != 8 {
			t.Errorf("read buffer size = %d, want 8", size)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 30 {
		t.Errorf("file size = %d, want 30", len(data))
	}
}

func TestWriteStreamDefaultChunkSize(t *testing.T) {
	s := &Storage{}
	src := &countingReader{r: strings.NewReader("hello")}

	if _, err := s.WriteStream(filepath.Join(t.TempDir(), "out.txt"), src); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	if len(src.reads) == 0 || src.reads[0] != models.DefaultChunkSize {
		t.Errorf("read buffer sizes = %v, want %d", src.reads, models.DefaultChunkSize)
	}
}

func TestWriteStreamOverwrites(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("old content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.WriteStream(path, bytes.NewReader([]byte("new"))); err != nil {
		t.Fatalf("WriteStream: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteStreamRemovesPartialFile(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "partial.bin")

	_, err := s.WriteStream(path, io.MultiReader(strings.NewReader("head"), failingReader{}))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("partial file left behind: %v", statErr)
	}
}
