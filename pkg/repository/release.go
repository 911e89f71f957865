package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/debian/release"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/go-logr/logr"
)

// ReleaseClient reads from a distribution whose Release file has
// been parsed.
//
// The preferred compression is the only mutable state. It must not
// be changed while ResolvePackages is running on the same client.
type ReleaseClient struct {
	dist        Reader
	release     *release.File
	compression []requestutil.Compression
}

// NewReleaseClient binds a parsed Release file to the reader of
// the distribution directory it was read from.
func NewReleaseClient(dist Reader, f *release.File) *ReleaseClient {
	return &ReleaseClient{
		dist:        dist,
		release:     f,
		compression: requestutil.DefaultPreferredOrder(),
	}
}

func (c *ReleaseClient) GetPath(ctx context.Context, path string) (io.ReadCloser, error) {
	return c.dist.GetPath(ctx, path)
}

func (c *ReleaseClient) Release() *release.File {
	return c.release
}

// PreferredCompression returns the formats tried when locating
// an index, most preferred first.
func (c *ReleaseClient) PreferredCompression() []requestutil.Compression {
	return slices.Clone(c.compression)
}

// SetPreferredCompression replaces the formats tried when locating
// an index. Calling it without arguments restores the default order.
func (c *ReleaseClient) SetPreferredCompression(order ...requestutil.Compression) {
	if len(order) == 0 {
		order = requestutil.DefaultPreferredOrder()
	}
	c.compression = slices.Clone(order)
}

// IndexLocation describes where a Packages index will be fetched from.
type IndexLocation struct {
	// Path is relative to the distribution directory.
	Path        string
	Entry       release.Entry
	Compression requestutil.Compression
}

// PackagesIndex locates the Packages index of a component and
// architecture using the strongest checksum the Release file lists.
func (c *ReleaseClient) PackagesIndex(component, arch string, byHash bool) (IndexLocation, error) {
	kind, ok := c.release.StrongestChecksum()
	if !ok {
		return IndexLocation{}, &PathError{
			Path: release.PackagesPath(component, arch, requestutil.CompressionNone),
			Err:  fmt.Errorf("%w: release file has no checksums", ErrNoPackagesIndex),
		}
	}
	entry, compression, ok := c.release.PackagesIndex(component, arch, kind, c.compression...)
	if !ok {
		return IndexLocation{}, &PathError{
			Path: release.PackagesPath(component, arch, requestutil.CompressionNone),
			Err:  fmt.Errorf("%w: %s", ErrNoPackagesIndex, kind),
		}
	}
	loc := IndexLocation{
		Path:        entry.Path,
		Entry:       entry,
		Compression: compression,
	}
	if byHash {
		loc.Path = entry.ByHashPath()
	}
	return loc, nil
}

// ResolvePackages fetches, verifies and parses the Packages index
// of a component and architecture. When verifyByHash is set the
// index is fetched from its by-hash location.
func (c *ReleaseClient) ResolvePackages(ctx context.Context, component, arch string, verifyByHash bool) (*debian.Index, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("component", component, "arch", arch)

	loc, err := c.PackagesIndex(component, arch, verifyByHash)
	if err != nil {
		return nil, err
	}
	log = log.WithValues("path", loc.Path, "compression", loc.Compression)
	log.V(1).Info("fetching packages index", "size", loc.Entry.Size, "checksum", loc.Entry.Kind)

	rc, err := c.dist.GetPath(ctx, loc.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	verifier := newVerifyingReader(rc, loc.Entry)
	dr, err := requestutil.NewReader(loc.Compression, verifier)
	if err != nil {
		return nil, &PathError{Path: loc.Path, Err: integrityOr(log, verifier, err)}
	}
	defer dr.Close()

	idx, err := debian.ReadIndex(ctx, loc.Entry.Path, dr)
	if err != nil {
		return nil, &PathError{Path: loc.Path, Err: integrityOr(log, verifier, err)}
	}
	if err := verifier.drain(); err != nil {
		log.Error(err, "packages index failed verification")
		return nil, &PathError{Path: loc.Path, Err: err}
	}
	log.V(1).Info("resolved packages", "count", idx.Count())
	return idx, nil
}

// integrityOr reads the rest of the stream when decoding fails
// part way. Bytes that do not match the Release entry are reported
// as an integrity failure rather than as whatever broke first.
func integrityOr(log logr.Logger, v *verifyingReader, err error) error {
	if verr := v.drain(); errors.Is(verr, ErrIntegrity) {
		log.Error(verr, "packages index failed verification", "decodeErr", err.Error())
		return verr
	}
	return err
}
