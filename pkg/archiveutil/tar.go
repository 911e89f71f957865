package archiveutil

import (
	"archive/tar"
	"context"
	"io"
	"path/filepath"

	"github.com/go-logr/logr"
)

// ReadTarFile returns the contents of the regular file whose
// cleaned path equals name (e.g. "control" matches "./control").
func ReadTarFile(ctx context.Context, r io.Reader, name string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", name)
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return nil, ErrMemberNotFound
		case err != nil:
			log.Error(err, "failed to read file from archive")
			return nil, err
		case header == nil:
			continue
		}

		if header.Typeflag != tar.TypeReg || filepath.Clean("/"+header.Name) != filepath.Clean("/"+name) {
			continue
		}
		log.V(5).Info("found file", "target", header.Name, "size", header.Size)
		return io.ReadAll(tr)
	}
}
