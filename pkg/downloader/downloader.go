// Package downloader fetches files through hashicorp/go-getter so
// that packages and repositories can live on local disk, object
// storage or plain HTTP.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/djcass44/deb-resolver/pkg/repository"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-getter"
)

type Downloader struct {
	cacheDir string
	pwd      string
}

func NewDownloader(cacheDir string) (*Downloader, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	pwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Downloader{cacheDir: cacheDir, pwd: pwd}, nil
}

// Download fetches src into the cache and returns the local path.
// Files that are already cached are not downloaded again.
func (d *Downloader) Download(ctx context.Context, src string) (string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)

	// download the file to a predictable location so that
	// we can avoid repeated downloads
	dst := filepath.Join(d.cacheDir, HashString(src), baseName(src))
	if _, err := os.Stat(dst); err == nil {
		log.V(1).Info("using cached file", "dst", dst)
		return dst, nil
	}
	log.Info("downloading file")
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	// download next to the destination and rename so that
	// an interrupted download is never mistaken for a cached one
	tmp := filepath.Join(filepath.Dir(dst), "."+uuid.NewString())
	if err := d.fetch(ctx, src, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	// we need to chmod the files so that the root group
	// can access them as if they were the owner
	if err := os.Chmod(dst, 0664); err != nil {
		log.Error(err, "failed to update file permissions", "file", dst)
		return "", err
	}
	return dst, nil
}

func (d *Downloader) fetch(ctx context.Context, src, dst string) error {
	log := logr.FromContextOrDiscard(ctx)
	log.V(2).Info("preparing to download file", "src", src, "dst", dst)

	getters := make(map[string]getter.Getter, len(getter.Getters))
	for k, v := range getter.Getters {
		getters[k] = v
	}
	// never symlink local files into the cache
	getters["file"] = &getter.FileGetter{Copy: true}

	client := &getter.Client{
		Ctx:             ctx,
		Src:             disableArchive(src),
		Dst:             dst,
		Pwd:             d.pwd,
		Mode:            getter.ClientModeFile,
		Getters:         getters,
		Decompressors:   map[string]getter.Decompressor{},
		DisableSymlinks: true,
	}
	if err := client.Get(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.V(1).Info("failed to download file", "src", src, "error", err.Error())
		return &repository.PathError{Path: src, Err: classify(err)}
	}
	return nil
}

// disableArchive stops go-getter from unpacking files based on
// their extension. Index files must be kept compressed so that their
// checksums can be verified.
func disableArchive(src string) string {
	uri, err := url.Parse(src)
	if err != nil || uri.Scheme == "" || len(uri.Scheme) == 1 {
		return src
	}
	q := uri.Query()
	q.Set("archive", "false")
	uri.RawQuery = q.Encode()
	return uri.String()
}

// classify maps go-getter failures onto repository errors. go-getter
// does not wrap the errors it returns so the message is all there is.
func classify(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}
	msg := err.Error()
	for _, s := range []string{"no such file or directory", "bad response code: 404", "bad response code: 410"} {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %s", repository.ErrNotFound, msg)
		}
	}
	return fmt.Errorf("%w: %w", repository.ErrTransport, err)
}

func baseName(src string) string {
	if uri, err := url.Parse(src); err == nil && uri.Path != "" {
		src = uri.Path
	}
	name := filepath.Base(src)
	if name == "." || name == "/" {
		return "download"
	}
	return name
}
