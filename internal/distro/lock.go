package distro

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/terassyi/jsvm/internal/layout"
)

// Lock guards a single tool's image directory lifecycle across
// processes. All writers (install, uninstall, package install) must
// acquire it before touching the image tree; readers do not.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the per-tool advisory lock, blocking until it is
// free.
func AcquireLock(l *layout.Layout, tool string) (*Lock, error) {
	fl := flock.New(l.ToolLockFile(tool))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", tool, err)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks the lock.
func (lk *Lock) Release() error {
	return lk.fl.Unlock()
}
