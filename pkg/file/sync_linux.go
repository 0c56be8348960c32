//go:build linux

package file

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/rayozzie/filegen/pkg/errors"
)

// Sync forces the written data of f to stable storage. Metadata that is not
// needed to read the data back is not flushed.
func Sync(f *os.File) error {
	for {
		err := unix.Fdatasync(int(f.Fd()))
		if err == unix.EINTR {
			continue
		}
		return errors.Wrap(err, "fdatasync")
	}
}
