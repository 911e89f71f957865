// Package repository reads Debian archives laid out as described in
// https://wiki.debian.org/DebianRepository/Format.
//
// An archive has a root under which distributions live in
// dists/<distribution>/. Each distribution has an InRelease and/or
// Release file describing its components, architectures and the
// checksums of every index it publishes.
package repository

import (
	"context"
	"io"
	"strings"
)

// Reader fetches the raw bytes stored at a path relative to
// the reader's root.
type Reader interface {
	GetPath(ctx context.Context, path string) (io.ReadCloser, error)
}

func joinPath(a, b string) string {
	a = strings.Trim(a, "/")
	b = strings.TrimLeft(b, "/")
	if a == "" {
		return b
	}
	return a + "/" + b
}
