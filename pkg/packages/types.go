package packages

import (
	"context"

	"github.com/djcass44/deb-resolver/pkg/lockfile"
)

// PackageManager turns a requested package into the set of
// packages that must be locked alongside it.
type PackageManager interface {
	Resolve(ctx context.Context, name string) ([]lockfile.Package, error)
}
