package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian/release"
	"github.com/go-logr/logr"
)

// DistributionClient reads from a distribution directory beneath
// an archive root.
type DistributionClient struct {
	root Reader
	path string
}

// NewDistributionClient binds a client to path beneath root.
func NewDistributionClient(root Reader, path string) *DistributionClient {
	return &DistributionClient{
		root: root,
		path: strings.Trim(path, "/"),
	}
}

// Distribution binds a client to dists/<name> beneath root.
func Distribution(root Reader, name string) *DistributionClient {
	return NewDistributionClient(root, "dists/"+strings.Trim(name, "/"))
}

// Path returns the location of the distribution relative to the root.
func (d *DistributionClient) Path() string {
	return d.path
}

func (d *DistributionClient) GetPath(ctx context.Context, path string) (io.ReadCloser, error) {
	return d.root.GetPath(ctx, joinPath(d.path, path))
}

// FetchInRelease fetches and parses the clear-signed InRelease file.
func (d *DistributionClient) FetchInRelease(ctx context.Context) (*ReleaseClient, error) {
	return d.fetch(ctx, "InRelease", release.ParseArmored)
}

// FetchRelease fetches and parses the unsigned Release file.
func (d *DistributionClient) FetchRelease(ctx context.Context) (*ReleaseClient, error) {
	return d.fetch(ctx, "Release", release.Parse)
}

// Fetch tries InRelease and falls back to Release when the
// archive does not publish one.
func (d *DistributionClient) Fetch(ctx context.Context) (*ReleaseClient, error) {
	rc, err := d.FetchInRelease(ctx)
	if err == nil {
		return rc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("distribution has no InRelease file, falling back to Release", "path", d.path)
	return d.FetchRelease(ctx)
}

func (d *DistributionClient) fetch(ctx context.Context, name string, parse func(io.Reader) (*release.File, error)) (*ReleaseClient, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("distribution", d.path, "file", name)

	r, err := d.GetPath(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := parse(r)
	if err != nil {
		log.Error(err, "failed to parse release file")
		return nil, fmt.Errorf("reading %s: %w", joinPath(d.path, name), err)
	}
	log.V(1).Info("parsed release file", "suite", f.Suite(), "codename", f.Codename(), "components", f.Components())
	return NewReleaseClient(d, f), nil
}
