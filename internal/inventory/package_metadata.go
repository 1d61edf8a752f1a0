package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// PackageMetadata is a single registry entry returned by a foreign
// package manager's metadata subcommand.
type PackageMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ResolvePackageMetadata invokes the foreign package manager's metadata
// command (e.g. "npm view <name> --json") when no index hook is
// configured for package resolution, and parses its JSON output in
// either single-object or array form.
func ResolvePackageMetadata(ctx context.Context, command string, args []string) ([]PackageMetadata, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("package metadata command %q failed: %w (stderr: %s)", command, err, stderr.String())
	}

	raw := bytes.TrimSpace(stdout.Bytes())
	if len(raw) == 0 {
		return nil, fmt.Errorf("package metadata command %q produced no output", command)
	}

	if raw[0] == '[' {
		var list []PackageMetadata
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to parse package metadata array: %w", err)
		}
		return list, nil
	}

	var single PackageMetadata
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("failed to parse package metadata object: %w", err)
	}
	return []PackageMetadata{single}, nil
}
