package debian

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/archiveutil"
	"github.com/djcass44/deb-resolver/pkg/debian/control"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/go-logr/logr"
)

const controlArchivePrefix = "control.tar"

// ReadArchiveControl extracts the control paragraph of a .deb
// file so that local packages can be used alongside an index.
func ReadArchiveControl(ctx context.Context, r io.Reader) (*BinaryPackage, error) {
	log := logr.FromContextOrDiscard(ctx)

	// a .deb is an ar archive holding control.tar[.ext]
	name, member, err := archiveutil.FindArMember(ctx, r, func(name string) bool {
		return strings.HasPrefix(name, controlArchivePrefix)
	})
	if err != nil {
		return nil, fmt.Errorf("locating control archive: %w", err)
	}
	log.V(4).Info("found control archive", "name", name)

	rc, err := requestutil.NewReader(requestutil.FromFilename(strings.TrimSuffix(name, "/")), member)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", name, err)
	}
	defer rc.Close()

	data, err := archiveutil.ReadTarFile(ctx, rc, "control")
	if err != nil {
		return nil, fmt.Errorf("reading control file: %w", err)
	}
	p, err := control.ParseParagraph(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing control file: %w", err)
	}
	return NewBinaryPackage(p), nil
}
