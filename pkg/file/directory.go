// Package file holds filegen's filesystem layer: the target directory, the
// names of generated files, and the create, open and sync calls made on them.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rayozzie/filegen/pkg/errors"
	"github.com/rayozzie/filegen/pkg/trace"
)

// ValidateTargetDirectory checks that dir exists and is a directory.
func ValidateTargetDirectory(ctx context.Context, dir string) error {
	log := trace.FromContext(ctx).WithPrefix("FILE")

	log.Debugf("Validating target directory: %s", dir)

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Fatalf("target directory does not exist: %s", dir)
		}
		return errors.Fatalf("cannot access target directory %s: %v", dir, err)
	}

	if !stat.IsDir() {
		return errors.Fatalf("target path is not a directory: %s", dir)
	}

	log.Debugf("Target directory is valid: %s", dir)
	return nil
}

// Name returns the file name for the file at index: prefix followed by the
// index as zero-padded hex.
func Name(prefix string, index uint64) string {
	return fmt.Sprintf("%s%08x", prefix, index)
}

// Path returns the path of the file at index inside dir.
func Path(dir, prefix string, index uint64) string {
	return filepath.Join(dir, Name(prefix, index))
}

// CreateExclusive creates path for writing and fails if it already exists.
func CreateExclusive(ctx context.Context, path string) (*os.File, error) {
	log := trace.FromContext(ctx).WithPrefix("FILE")
	log.Tracef("Creating %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// OpenRead opens path read-only.
func OpenRead(ctx context.Context, path string) (*os.File, error) {
	log := trace.FromContext(ctx).WithPrefix("FILE")
	log.Tracef("Opening %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}
