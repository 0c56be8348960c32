//go:build !linux

package file

import (
	"os"

	"github.com/rayozzie/filegen/pkg/errors"
)

// Sync forces the written data of f to stable storage.
func Sync(f *os.File) error {
	return errors.Wrap(f.Sync(), "fsync")
}
