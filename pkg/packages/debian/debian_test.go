package debian

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/downloader"
	"github.com/djcass44/deb-resolver/pkg/packages"
	"github.com/djcass44/deb-resolver/pkg/repository"
	"github.com/djcass44/deb-resolver/pkg/resolver"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interface guard
var _ packages.PackageManager = &PackageKeeper{}

const mirror = "https://deb.example.org/debian"

const packagesAMD64 = `Package: git
Version: 1:2.39.2-1
Architecture: amd64
Depends: libc6 (>= 2.34), git-man (>> 1:2.39.2), zlib1g
Recommends: less
Filename: pool/main/g/git/git_2.39.2-1_amd64.deb
SHA256: 0000000000000000000000000000000000000000000000000000000000000001

Package: git-man
Version: 1:2.39.2-1
Architecture: all
Filename: pool/main/g/git/git-man_2.39.2-1_all.deb
SHA256: 0000000000000000000000000000000000000000000000000000000000000002

Package: libc6
Version: 2.36-9
Architecture: amd64
Filename: pool/main/g/glibc/libc6_2.36-9_amd64.deb
SHA256: 0000000000000000000000000000000000000000000000000000000000000003

Package: zlib1g
Version: 1:1.2.13.dfsg-1
Architecture: amd64
Depends: libc6 (>= 2.14)
Filename: pool/main/z/zlib/zlib1g_1.2.13.dfsg-1_amd64.deb
SHA256: 0000000000000000000000000000000000000000000000000000000000000004

Package: less
Version: 590-2
Architecture: amd64
Depends: libc6 (>= 2.34)
Filename: pool/main/l/less/less_590-2_amd64.deb
SHA256: 0000000000000000000000000000000000000000000000000000000000000005

Package: broken
Version: 1.0
Architecture: amd64
Depends: missing
`

// newMirror serves a bookworm distribution publishing amd64 only.
func newMirror(t *testing.T) *repository.MemoryReader {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(packagesAMD64))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	index := buf.Bytes()
	rel := fmt.Sprintf("Codename: bookworm\nArchitectures: amd64\nComponents: main\nSHA256:\n %x %d main/binary-amd64/Packages.gz\n", sha256.Sum256(index), len(index))
	return repository.NewMemoryReader(map[string][]byte{
		"dists/bookworm/Release":                       []byte(rel),
		"dists/bookworm/main/binary-amd64/Packages.gz": index,
	})
}

func newOptions(t *testing.T, mem *repository.MemoryReader) Options {
	t.Helper()
	d, err := downloader.NewDownloader(t.TempDir())
	require.NoError(t, err)
	return Options{
		Downloader: d,
		Open: func(_ context.Context, rawURL string) (repository.Reader, error) {
			if rawURL != mirror {
				return nil, repository.ErrInvalidURL
			}
			return mem, nil
		},
	}
}

// writeDeb builds a .deb holding only a control file.
func writeDeb(t *testing.T, dir, control string) string {
	t.Helper()
	var tarBuf bytes.Buffer
	gw := gzip.NewWriter(&tarBuf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "./control", Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(control))}))
	_, err := tw.Write([]byte(control))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())

	var deb bytes.Buffer
	aw := ar.NewWriter(&deb)
	require.NoError(t, aw.WriteGlobalHeader())
	for _, m := range []struct {
		name string
		body []byte
	}{
		{"debian-binary", []byte("2.0\n")},
		{"control.tar.gz", tarBuf.Bytes()},
	} {
		require.NoError(t, aw.WriteHeader(&ar.Header{Name: m.name, Size: int64(len(m.body)), Mode: 0644, ModTime: time.Unix(0, 0)}))
		_, err = aw.Write(m.body)
		require.NoError(t, err)
	}
	path := filepath.Join(dir, "local.deb")
	require.NoError(t, os.WriteFile(path, deb.Bytes(), 0644))
	return path
}

func TestPackageKeeper_Resolve(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	cfg := v1.ResolveSpec{
		Repositories: []v1.Repository{
			{
				URL:          mirror,
				Distribution: "bookworm",
			},
		},
	}
	pkg, err := NewPackageKeeper(ctx, cfg, newOptions(t, newMirror(t)))
	require.NoError(t, err)
	assert.EqualValues(t, DefaultArchitecture, pkg.Architecture())
	assert.EqualValues(t, resolver.DefaultRelationships(), pkg.Relations())
	assert.EqualValues(t, 6, pkg.Resolver().Len())

	t.Run("closure", func(t *testing.T) {
		out, err := pkg.Resolve(ctx, "git (>= 1:2.30)")
		require.NoError(t, err)
		require.Len(t, out, 4)

		assert.EqualValues(t, "git", out[0].Name)
		assert.EqualValues(t, []string{"git (>= 1:2.30)"}, out[0].Requested)
		assert.Empty(t, out[0].Source)
		assert.EqualValues(t, mirror+"/pool/main/g/git/git_2.39.2-1_amd64.deb", out[0].Resolved)
		assert.EqualValues(t, "sha256:0000000000000000000000000000000000000000000000000000000000000001", out[0].Integrity)

		var names []string
		for _, p := range out[1:] {
			names = append(names, p.Name)
			assert.EqualValues(t, "git", p.Source)
			assert.EqualValues(t, debian.Depends, p.Kind)
			assert.EqualValues(t, v1.PackageDebian, p.Type)
		}
		assert.EqualValues(t, []string{"libc6", "git-man", "zlib1g"}, names)
	})
	t.Run("missing package", func(t *testing.T) {
		_, err := pkg.Resolve(ctx, "curl")
		assert.ErrorIs(t, err, resolver.ErrUnresolved)
	})
	t.Run("incomplete closure", func(t *testing.T) {
		_, err := pkg.Resolve(ctx, "broken")
		assert.ErrorIs(t, err, resolver.ErrUnresolved)

		deps, err := pkg.Closure(ctx, "broken")
		require.NoError(t, err)
		assert.Len(t, deps.Unresolved(), 1)
	})
	t.Run("malformed request", func(t *testing.T) {
		_, err := pkg.Resolve(ctx, "git (>= 1")
		assert.Error(t, err)
	})
}

func TestPackageKeeper_Files(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	path := writeDeb(t, t.TempDir(), "Package: git\nVersion: 1:2.39.2-1\nArchitecture: amd64\nDepends: libc6\n")

	cfg := v1.ResolveSpec{
		Relations: []string{"Depends", "Recommends"},
		Repositories: []v1.Repository{
			{
				URL:          mirror,
				Distribution: "bookworm",
				Compression:  []string{"gz"},
			},
		},
		Files: []v1.File{
			{
				URI: path,
			},
		},
	}
	pkg, err := NewPackageKeeper(ctx, cfg, newOptions(t, newMirror(t)))
	require.NoError(t, err)

	out, err := pkg.Resolve(ctx, "git")
	require.NoError(t, err)
	// the local file wins the tie with the repository copy
	assert.EqualValues(t, path, out[0].Resolved)
	assert.True(t, strings.HasPrefix(out[0].Integrity, "sha256:"))
	assert.Len(t, out, 2)

	files := pkg.Files()
	require.Len(t, files, 1)
	assert.EqualValues(t, v1.PackageFile, files[0].Type)
	assert.EqualValues(t, out[0].Integrity, files[0].Integrity)
}

func TestNewPackageKeeper(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	var cases = []struct {
		name string
		cfg  v1.ResolveSpec
	}{
		{
			"unknown relation",
			v1.ResolveSpec{Relations: []string{"Conflicts"}},
		},
		{
			"missing distribution",
			v1.ResolveSpec{Repositories: []v1.Repository{{URL: mirror}}},
		},
		{
			"unknown repository",
			v1.ResolveSpec{Repositories: []v1.Repository{{URL: "https://example.org", Distribution: "bookworm"}}},
		},
		{
			"unpublished architecture",
			v1.ResolveSpec{Repositories: []v1.Repository{{URL: mirror, Distribution: "bookworm", Architectures: []string{"arm64"}}}},
		},
		{
			"unknown compression",
			v1.ResolveSpec{Repositories: []v1.Repository{{URL: mirror, Distribution: "bookworm", Compression: []string{"rar"}}}},
		},
		{
			"missing file",
			v1.ResolveSpec{Files: []v1.File{{URI: "/does/not/exist.deb"}}},
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPackageKeeper(ctx, tt.cfg, newOptions(t, newMirror(t)))
			assert.Error(t, err)
		})
	}

	t.Run("native architecture is not published", func(t *testing.T) {
		pkg, err := NewPackageKeeper(ctx, v1.ResolveSpec{
			Architecture: "arm64",
			Repositories: []v1.Repository{{URL: mirror, Distribution: "bookworm"}},
		}, newOptions(t, newMirror(t)))
		require.NoError(t, err)
		assert.Zero(t, pkg.Resolver().Len())
	})
}

func TestPackageKeeper_key(t *testing.T) {
	p := &PackageKeeper{arch: "amd64"}
	assert.EqualValues(t, "libc6", p.key("libc6", "amd64"))
	assert.EqualValues(t, "git-man", p.key("git-man", "all"))
	assert.EqualValues(t, "libc6:i386", p.key("libc6", "i386"))
}

func TestWriteIndex(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	idx, err := debian.ReadIndex(ctx, "test", strings.NewReader(packagesAMD64))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteIndex(&buf, idx.Packages()))
	assert.EqualValues(t, packagesAMD64, buf.String())

	out, err := debian.ReadIndex(ctx, "test", &buf)
	require.NoError(t, err)
	assert.EqualValues(t, idx.Count(), out.Count())
}
