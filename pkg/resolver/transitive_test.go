package resolver

import (
	"context"
	"testing"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edges(t *TransitiveDependencies) [][3]string {
	var out [][3]string
	for _, e := range t.PackagesWithSources() {
		out = append(out, [3]string{e.Package.String(), e.Source.String(), string(e.Kind)})
	}
	return out
}

func TestResolver_TransitiveDependencies(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	t.Run("cycle", func(t *testing.T) {
		a := newPackage(t, "a", "1.0", "amd64", "Depends: b")
		b := newPackage(t, "b", "1.0", "amd64", "Depends: a")
		r := newResolver(t, ctx, a, b)

		deps, err := r.TransitiveDependencies(ctx, a, debian.Depends)
		require.NoError(t, err)
		assert.EqualValues(t, []string{"b_1.0_amd64"}, names(deps.Packages()))
		assert.NoError(t, deps.Err())
	})
	t.Run("breadth first per kind", func(t *testing.T) {
		root := newPackage(t, "root", "1.0", "amd64",
			"Depends: d1, d2",
			"Pre-Depends: p1",
			"Recommends: r1, d1",
		)
		r := newResolver(t, ctx, root,
			newPackage(t, "d1", "1.0", "amd64", "Depends: shared, d1-only"),
			newPackage(t, "d2", "1.0", "amd64", "Depends: shared"),
			newPackage(t, "p1", "1.0", "amd64", "Recommends: p1-rec"),
			newPackage(t, "r1", "1.0", "amd64"),
			newPackage(t, "shared", "1.0", "amd64"),
			newPackage(t, "d1-only", "1.0", "amd64"),
			newPackage(t, "p1-rec", "1.0", "all"),
		)

		deps, err := r.TransitiveDependencies(ctx, root, debian.Depends, debian.PreDepends, debian.Recommends)
		require.NoError(t, err)
		assert.EqualValues(t, [][3]string{
			{"d1_1.0_amd64", "root_1.0_amd64", "Depends"},
			{"d2_1.0_amd64", "root_1.0_amd64", "Depends"},
			{"p1_1.0_amd64", "root_1.0_amd64", "Pre-Depends"},
			{"r1_1.0_amd64", "root_1.0_amd64", "Recommends"},
			{"shared_1.0_amd64", "d1_1.0_amd64", "Depends"},
			{"d1-only_1.0_amd64", "d1_1.0_amd64", "Depends"},
			{"p1-rec_1.0_all", "p1_1.0_amd64", "Recommends"},
		}, edges(deps))
	})
	t.Run("kinds limit the walk", func(t *testing.T) {
		root := newPackage(t, "root", "1.0", "amd64", "Depends: d1", "Recommends: r1")
		r := newResolver(t, ctx, root,
			newPackage(t, "d1", "1.0", "amd64"),
			newPackage(t, "r1", "1.0", "amd64"),
		)

		deps, err := r.TransitiveDependencies(ctx, root)
		require.NoError(t, err)
		assert.EqualValues(t, []debian.Relationship{debian.Depends, debian.PreDepends}, deps.Kinds)
		assert.EqualValues(t, []string{"d1_1.0_amd64"}, names(deps.Packages()))
	})
	t.Run("unresolved and problems are accumulated", func(t *testing.T) {
		root := newPackage(t, "root", "1.0", "amd64", "Depends: a, missing")
		r := newResolver(t, ctx, root,
			newPackage(t, "a", "1.0", "amd64", "Depends: broken (>= 1.0, b"),
			newPackage(t, "b", "1.0", "amd64"),
		)

		deps, err := r.TransitiveDependencies(ctx, root, debian.Depends)
		require.NoError(t, err)
		assert.EqualValues(t, []string{"a_1.0_amd64"}, names(deps.Packages()))
		require.Len(t, deps.Unresolved(), 1)
		assert.EqualValues(t, "missing", deps.Unresolved()[0].Expression.String())
		assert.Len(t, deps.Problems(), 1)
		assert.ErrorIs(t, deps.Err(), ErrUnresolved)
	})
	t.Run("broken root", func(t *testing.T) {
		root := newPackage(t, "root", "1.0", "amd64", "Depends: (")
		r := newResolver(t, ctx, root)

		_, err := r.TransitiveDependencies(ctx, root, debian.Depends)
		assert.Error(t, err)
	})
	t.Run("root outside the pool", func(t *testing.T) {
		local := newPackage(t, "local", "0.1", "amd64", "Depends: a")
		r := newResolver(t, ctx,
			newPackage(t, "a", "1.0", "amd64", "Depends: local"),
			newPackage(t, "local", "0.1", "amd64"),
		)

		deps, err := r.TransitiveDependencies(ctx, local, debian.Depends)
		require.NoError(t, err)
		// the pool copy of local shares its identity so is not revisited
		assert.EqualValues(t, []string{"a_1.0_amd64"}, names(deps.Packages()))
	})
	t.Run("cancelled", func(t *testing.T) {
		a := newPackage(t, "a", "1.0", "amd64", "Depends: b")
		r := newResolver(t, ctx, a, newPackage(t, "b", "1.0", "amd64"))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.TransitiveDependencies(cctx, a, debian.Depends)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolver_TransitiveDependencies_Deterministic(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 1}))

	pool := []*debian.BinaryPackage{
		newPackage(t, "git", "1:2.39.2-1", "amd64",
			"Depends: libc6 (>= 2.34), libcurl3-gnutls (>= 7.56.1), libexpat1 (>= 2.0.1), libpcre2-8-0 (>= 10.34), zlib1g (>= 1:1.2.2), perl, git-man (>> 1:2.39.2), git-man (<< 1:2.39.2-.)",
			"Recommends: ca-certificates, patch, less, ssh-client",
		),
		newPackage(t, "git-man", "1:2.39.2-1", "all"),
		newPackage(t, "libc6", "2.36-9", "amd64", "Depends: libgcc-s1"),
		newPackage(t, "libgcc-s1", "12.2.0-14", "amd64", "Depends: gcc-12-base (= 12.2.0-14), libc6 (>= 2.35)"),
		newPackage(t, "gcc-12-base", "12.2.0-14", "amd64"),
		newPackage(t, "libcurl3-gnutls", "7.88.1-10", "amd64", "Depends: libc6 (>= 2.34), zlib1g (>= 1:1.1.4)"),
		newPackage(t, "libexpat1", "2.5.0-1", "amd64", "Depends: libc6 (>= 2.25)"),
		newPackage(t, "libpcre2-8-0", "10.42-1", "amd64", "Pre-Depends: libc6 (>= 2.34)"),
		newPackage(t, "zlib1g", "1:1.2.13.dfsg-1", "amd64", "Depends: libc6 (>= 2.14)"),
		newPackage(t, "perl", "5.36.0-7", "amd64", "Pre-Depends: dpkg (>= 1.17.17)", "Depends: perl-base (= 5.36.0-7)"),
		newPackage(t, "perl-base", "5.36.0-7", "amd64", "Pre-Depends: libc6 (>= 2.35)"),
		newPackage(t, "dpkg", "1.21.22", "amd64", "Pre-Depends: libc6 (>= 2.34), tar (>= 1.28-1)"),
		newPackage(t, "tar", "1.34+dfsg-1.2", "amd64", "Pre-Depends: libc6 (>= 2.34)"),
		newPackage(t, "ca-certificates", "20230311", "all", "Depends: openssl (>= 1.1.1)"),
		newPackage(t, "openssl", "3.0.11-1", "amd64", "Depends: libc6 (>= 2.34)"),
		newPackage(t, "patch", "2.7.6-7", "amd64", "Depends: libc6 (>= 2.34)"),
		newPackage(t, "less", "590-2", "amd64", "Depends: libc6 (>= 2.34)"),
		newPackage(t, "openssh-client", "1:9.2p1-2", "amd64", "Provides: ssh-client", "Depends: libc6 (>= 2.36)"),
	}
	r := newResolver(t, ctx, pool...)

	var first [][3]string
	for i := 0; i < 10; i++ {
		deps, err := r.TransitiveDependencies(ctx, pool[0], debian.Depends, debian.PreDepends, debian.Recommends)
		require.NoError(t, err)
		assert.NoError(t, deps.Err())
		if i == 0 {
			first = edges(deps)
			assert.Len(t, first, len(pool)-1)
			continue
		}
		assert.EqualValues(t, first, edges(deps))
	}
}
