package debian

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/debian/control"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/go-logr/logr"
)

// ReadIndex reads every paragraph of a Packages stream.
func ReadIndex(ctx context.Context, source string, r io.Reader) (*Index, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("source", source)

	var out []*BinaryPackage
	for p, err := range control.Paragraphs(r) {
		if err != nil {
			log.V(1).Info("failed to decode index", "count", len(out), "error", err.Error())
			return nil, fmt.Errorf("decoding paragraph %d: %w", len(out)+1, err)
		}
		out = append(out, NewBinaryPackage(p))
	}
	log.V(1).Info("successfully decoded index", "count", len(out))
	return NewIndex(source, out), nil
}

// OpenIndex reads a Packages file from disk, decompressing it
// based on its extension.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, err := requestutil.NewReader(requestutil.FromFilename(path), f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadIndex(ctx, path, rc)
}

// NewIndex creates an index over existing packages.
func NewIndex(source string, packages []*BinaryPackage) *Index {
	return &Index{
		packages: packages,
		source:   source,
	}
}

func (idx *Index) Count() int {
	return len(idx.packages)
}

func (idx *Index) Source() string {
	return idx.source
}

// Packages returns the packages in the order they were read.
func (idx *Index) Packages() []*BinaryPackage {
	return idx.packages
}

// Find returns every package with the given name.
func (idx *Index) Find(name string) []*BinaryPackage {
	var out []*BinaryPackage
	for _, p := range idx.packages {
		if n, err := p.Package(); err == nil && n == name {
			out = append(out, p)
		}
	}
	return out
}

// Merge concatenates indices, keeping their order.
func Merge(indices ...*Index) *Index {
	var packages []*BinaryPackage
	var sources []string
	for _, idx := range indices {
		if idx == nil {
			continue
		}
		packages = append(packages, idx.packages...)
		sources = append(sources, idx.source)
	}
	return NewIndex(strings.Join(sources, ","), packages)
}
