//go:build unix

package wazeroimpl

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockDir takes the exclusive lock on dir, so two processes never share one
// compilation cache.
func lockDir(dir string) (*os.File, error) {
	lf, err := os.OpenFile(filepath.Join(dir, "exclusive.lock"), os.O_WRONLY|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("could not open exclusive.lock: %w", err)
	}
	if _, err := lf.WriteString("exclusive lock for goffi wasm cache\n"); err != nil {
		lf.Close()
		return nil, fmt.Errorf("error writing to exclusive.lock: %w", err)
	}
	if err := unix.Flock(int(lf.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lf.Close()
		return nil, fmt.Errorf("could not lock exclusive.lock; is another process using %s? %w", dir, err)
	}
	return lf, nil
}
