// Package imagestore implements domain.ImageStore on the local disk and on S3.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nourish/internal/domain"
)

var (
	_ domain.ImageStore = (*Disk)(nil)
	_ domain.ImageStore = (*S3)(nil)
)

// ErrInvalidName is returned for object names that are not a single path element.
var ErrInvalidName = errors.New("invalid image name")

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}

// Disk stores images as files in a single directory.
type Disk struct {
	dir string
}

// NewDisk creates dir if needed and returns a store rooted there.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Save writes r to name, replacing the file atomically.
func (d *Disk) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, name))
}

// Open returns the stored image.
func (d *Disk) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if checkName(name) != nil {
		return nil, domain.ErrNotFound
	}
	f, err := os.Open(filepath.Join(d.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return f, err
}

// Delete removes the stored image.
func (d *Disk) Delete(ctx context.Context, name string) error {
	if checkName(name) != nil {
		return domain.ErrNotFound
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	return err
}
