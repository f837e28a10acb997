package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Writer streams records into a gzip-compressed NDJSON dump, one JSON
// object per line.
type Writer struct {
	file *os.File
	gz   *gzip.Writer
	enc  *json.Encoder
	name string
}

// NewWriter creates a dump file in dir with a unique timestamped name.
// The directory is created if it does not exist.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	name := fmt.Sprintf("vestnik-%s-%s.ndjson.gz",
		time.Now().UTC().Format("20060102-150405"), uuid.New().String()[:8])
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}

	gz := gzip.NewWriter(file)
	return &Writer{
		file: file,
		gz:   gz,
		enc:  json.NewEncoder(gz),
		name: path,
	}, nil
}

// Name returns the full path of the dump file.
func (w *Writer) Name() string {
	return w.name
}

// Write appends one record as a JSON line.
func (w *Writer) Write(v any) error {
	return w.enc.Encode(v)
}

// Close flushes the compressed stream and closes the file.
func (w *Writer) Close() error {
	if err := w.gz.Close(); err != nil {
		if cerr := w.file.Close(); cerr != nil {
			fmt.Printf("Warning: failed to close archive file: %v\n", cerr)
		}
		return fmt.Errorf("closing gzip stream: %w", err)
	}
	return w.file.Close()
}
