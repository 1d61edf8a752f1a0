package executor

import (
	"context"
	"fmt"
)

// Runner performs the concrete side effect for a single non-Multiple
// plan kind. cmd/jsvm-shim wires a Runner backed by internal/distro,
// internal/pkginstall, and a plain subprocess exec; tests wire a fake.
type Runner interface {
	RunTool(ctx context.Context, p Plan) (exitCode int, err error)
	RunPackageInstall(ctx context.Context, p Plan) (exitCode int, err error)
	RunPackageLink(ctx context.Context, p Plan) (exitCode int, err error)
	RunPackageUpgrade(ctx context.Context, p Plan) (exitCode int, err error)
	RunInternalInstall(ctx context.Context, p Plan) (exitCode int, err error)
	RunUninstall(ctx context.Context, p Plan) (exitCode int, err error)
}

// Execute dispatches p to r, recursing into a KindMultiple plan's Sub
// plans strictly in order and stopping at the first non-zero exit code
// or error — no rollback of previously-succeeded steps is attempted.
func Execute(ctx context.Context, r Runner, p Plan) (int, error) {
	switch p.Kind {
	case KindMultiple:
		for _, sub := range p.Sub {
			code, err := Execute(ctx, r, sub)
			if err != nil || code != 0 {
				return code, err
			}
		}
		return 0, nil
	case KindTool:
		return r.RunTool(ctx, p)
	case KindPackageInstall:
		return r.RunPackageInstall(ctx, p)
	case KindPackageLink:
		return r.RunPackageLink(ctx, p)
	case KindPackageUpgrade:
		return r.RunPackageUpgrade(ctx, p)
	case KindInternalInstall:
		return r.RunInternalInstall(ctx, p)
	case KindUninstall:
		return r.RunUninstall(ctx, p)
	default:
		return 1, fmt.Errorf("executor: unknown plan kind %d", p.Kind)
	}
}
