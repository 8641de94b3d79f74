// Package photos loads, validates and renders contact portraits.
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// MaxPhotoBytes bounds the size of a picked image.
const MaxPhotoBytes = 20 << 20

var ErrPhotoTooLarge = errors.New("photo exceeds size limit")

// Loader fetches the bytes of a picked image. Implementations must return promptly
// once ctx is cancelled.
type Loader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// FileLoader reads picked images from a filesystem.
type FileLoader struct {
	Fs afero.Fs
}

// NewFileLoader returns a loader backed by the operating system's filesystem.
func NewFileLoader() *FileLoader {
	return &FileLoader{Fs: afero.NewOsFs()}
}

// Load reads the image at path and checks that it decodes.
func (l *FileLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.Fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	chunk := make([]byte, 64<<10)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, rerr := f.Read(chunk)
		buf.Write(chunk[:n])
		if buf.Len() > MaxPhotoBytes {
			return nil, ErrPhotoTooLarge
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("read photo: %w", rerr)
		}
	}

	data := buf.Bytes()
	if _, err := Inspect(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Export writes data to path on fs, creating parent directories.
func Export(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write photo: %w", err)
	}
	return nil
}
