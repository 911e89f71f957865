package debian

import (
	"testing"

	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gitControl = `Package: git
Version: 1:2.30.2-1
Architecture: amd64
Maintainer: Gerrit Pape <pape@smarden.org>
Installed-Size: 38255
Depends: libc6 (>= 2.28), libcurl3-gnutls (>= 7.56.1), perl, git-man (>> 1:2.30.2), git-man (<< 1:2.30.2-.)
Pre-Depends: libpcre2-8-0 (>= 10.32)
Recommends: ca-certificates, patch, less, ssh-client
Suggests: gettext-base, git-daemon-run | git-daemon-sysvinit
Provides: git-completion, git-core
Breaks: bash-completion (<< 1:1.90-1)
Section: vcs
Priority: optional
Multi-Arch: foreign
Homepage: https://git-scm.com/
Description: fast, scalable, distributed revision control system
 Git is popular version control system.
Filename: pool/main/g/git/git_2.30.2-1_amd64.deb
Size: 5527648
SHA256: 3e0fbcbdc8a4a0e9b09b8b7b1aa4e3c96b3b5f1d79fb3f2b6b0ad0a8c5bdb7b2
`

func TestBinaryPackage_RequiredFields(t *testing.T) {
	p, err := ParseBinaryPackage(gitControl)
	require.NoError(t, err)

	name, err := p.Package()
	assert.NoError(t, err)
	assert.EqualValues(t, "git", name)

	v, err := p.Version()
	assert.NoError(t, err)
	assert.EqualValues(t, 1, v.Epoch)
	assert.EqualValues(t, "2.30.2", v.Upstream)

	arch, err := p.Architecture()
	assert.NoError(t, err)
	assert.EqualValues(t, "amd64", arch)

	_, err = p.Maintainer()
	assert.NoError(t, err)

	desc, err := p.Description()
	assert.NoError(t, err)
	assert.Contains(t, desc, "fast, scalable")

	assert.EqualValues(t, "git_1:2.30.2-1_amd64", p.String())
}

func TestBinaryPackage_MissingField(t *testing.T) {
	p, err := ParseBinaryPackage("Package: foo\n")
	require.NoError(t, err)

	_, err = p.Version()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = p.Architecture()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = p.Maintainer()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = p.Description()
	assert.ErrorIs(t, err, ErrMissingField)

	_, ok := p.Section()
	assert.False(t, ok)
	_, ok, err = p.InstalledSize()
	assert.False(t, ok)
	assert.NoError(t, err)

	deps, err := p.Depends()
	assert.NoError(t, err)
	assert.Empty(t, deps)
}

func TestBinaryPackage_OptionalFields(t *testing.T) {
	p, err := ParseBinaryPackage(gitControl)
	require.NoError(t, err)

	section, ok := p.Section()
	assert.True(t, ok)
	assert.EqualValues(t, "vcs", section)

	size, ok, err := p.InstalledSize()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.EqualValues(t, 38255, size)

	ma, _ := p.MultiArch()
	assert.EqualValues(t, "foreign", ma)
	assert.False(t, p.Essential())

	_, ok = p.Source()
	assert.False(t, ok)
	_, ok = p.BuiltUsing()
	assert.False(t, ok)

	filename, ok := p.Filename()
	assert.True(t, ok)
	assert.EqualValues(t, "pool/main/g/git/git_2.30.2-1_amd64.deb", filename)
}

func TestBinaryPackage_Relationships(t *testing.T) {
	p, err := ParseBinaryPackage(gitControl)
	require.NoError(t, err)

	var cases = []struct {
		rel   Relationship
		count int
	}{
		{Depends, 5},
		{PreDepends, 1},
		{Recommends, 4},
		{Suggests, 2},
		{Enhances, 0},
	}

	for _, tt := range cases {
		t.Run(string(tt.rel), func(t *testing.T) {
			l, err := p.Relationship(tt.rel)
			assert.NoError(t, err)
			assert.Len(t, l, tt.count)
		})
	}

	suggests, err := p.Suggests()
	require.NoError(t, err)
	assert.Len(t, suggests[1].Alternatives, 2)

	provides, err := p.Provides()
	require.NoError(t, err)
	assert.EqualValues(t, "git-completion, git-core", provides.String())
}

func TestBinaryPackage_MalformedRelationship(t *testing.T) {
	p, err := ParseBinaryPackage("Package: foo\nDepends: bar (>= 1.0\nRecommends: baz\n")
	require.NoError(t, err)

	_, err = p.Depends()
	assert.ErrorIs(t, err, dependency.ErrUnbalancedParenthesis)

	// other fields are unaffected
	rec, err := p.Recommends()
	assert.NoError(t, err)
	assert.Len(t, rec, 1)
}

func TestParseRelationship(t *testing.T) {
	var cases = []struct {
		in  string
		out Relationship
		ok  bool
	}{
		{"Depends", Depends, true},
		{"pre-depends", PreDepends, true},
		{"PreDepends", PreDepends, true},
		{"recommends", Recommends, true},
		{"Conflicts", "", false},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			out, err := ParseRelationship(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tt.out, out)
		})
	}
}
