package downloader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Reader serves repository paths relative to a go-getter source,
// e.g. a local mirror directory or an s3:: bucket. Fetched files are
// never cached since index files change between runs.
type Reader struct {
	d    *Downloader
	base string
	tmp  string
}

// NewReader returns a Reader that resolves paths against base.
func (d *Downloader) NewReader(base string) *Reader {
	return &Reader{
		d:    d,
		base: base,
		tmp:  filepath.Join(d.cacheDir, "tmp"),
	}
}

func (r *Reader) GetPath(ctx context.Context, path string) (io.ReadCloser, error) {
	log := logr.FromContextOrDiscard(ctx)
	src := r.join(path)

	if err := os.MkdirAll(r.tmp, 0755); err != nil {
		return nil, err
	}
	dst := filepath.Join(r.tmp, uuid.NewString())
	if err := r.d.fetch(ctx, src, dst); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	f, err := os.Open(dst)
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	log.V(2).Info("opened file", "src", src, "path", dst)
	return &tempFile{File: f}, nil
}

// join appends path to the base source, keeping any query string
// (e.g. credentials) at the end.
func (r *Reader) join(path string) string {
	base, query, hasQuery := strings.Cut(r.base, "?")
	out := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	if hasQuery {
		out += "?" + query
	}
	return out
}

type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	_ = os.Remove(t.Name())
	return err
}
