package executor

import (
	"fmt"

	"github.com/terassyi/jsvm/internal/version"
)

// LinkVersionMismatch reports whether a project-local link target was
// installed under a different major Node version than the active
// project's. The caller should warn but proceed: this is advisory, not
// a failure.
func LinkVersionMismatch(activeNode version.Version, packagePlatformNode string) (bool, error) {
	if packagePlatformNode == "" {
		return false, nil
	}
	pkgNode, err := version.Parse(packagePlatformNode)
	if err != nil {
		return false, fmt.Errorf("invalid linked package platform version %q: %w", packagePlatformNode, err)
	}
	return activeNode.Major() != pkgNode.Major(), nil
}
