package archiveutil

import (
	"context"
	"errors"
	"io"

	"github.com/blakesmith/ar"
	"github.com/go-logr/logr"
)

var ErrMemberNotFound = errors.New("archive member not found")

// FindArMember scans an ar archive and returns a reader over the
// first member whose name satisfies match. The reader is only
// valid until the next read from r.
func FindArMember(ctx context.Context, r io.Reader, match func(name string) bool) (string, io.Reader, error) {
	log := logr.FromContextOrDiscard(ctx)
	tr := ar.NewReader(r)

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return "", nil, ErrMemberNotFound
		case err != nil:
			log.Error(err, "failed to read file from archive")
			return "", nil, err
		case header == nil:
			continue
		}

		log.V(5).Info("inspecting member", "name", header.Name, "size", header.Size)
		if match(header.Name) {
			return header.Name, io.LimitReader(tr, header.Size), nil
		}
	}
}
