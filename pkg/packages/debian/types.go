package debian

import (
	"context"
	"net/http"

	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/downloader"
	"github.com/djcass44/deb-resolver/pkg/repository"
	"github.com/djcass44/deb-resolver/pkg/resolver"
)

const DefaultArchitecture = "amd64"

type PackageKeeper struct {
	arch     string
	kinds    []debian.Relationship
	resolver *resolver.Resolver
	origins  map[*debian.BinaryPackage]origin
	files    []v1.File
	digests  map[string]string
}

// origin records where a package in the pool came from so that its
// download location can be written to the lockfile.
type origin struct {
	// base is the repository root as written in the configuration,
	// or the URI of a local file.
	base string
	typ  v1.PackageType
}

// OpenFunc returns a reader for the repository root at rawURL.
type OpenFunc func(ctx context.Context, rawURL string) (repository.Reader, error)

type Options struct {
	// HTTPClient is used for http and https repositories.
	HTTPClient *http.Client
	// Downloader fetches local files and repositories that are not
	// served over HTTP.
	Downloader *downloader.Downloader
	// Open overrides how repository roots are read.
	Open OpenFunc
	// Concurrency limits the number of indices fetched at once.
	Concurrency int
}
