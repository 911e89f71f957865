package release

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bullseyeRelease = `Origin: Debian
Label: Debian
Suite: stable
Version: 11.1
Codename: bullseye
Changelogs: https://metadata.ftp-master.debian.org/changelogs/@CHANGEPATH@_changelog
Date: Sat, 9 Oct 2021 09:34:56 UTC
Acquire-By-Hash: yes
No-Support-for-Architecture-all: Packages
Architectures: all amd64 arm64 armel armhf i386 mips64el mipsel ppc64el s390x
Components: main contrib non-free
Description: Debian 11.1 Released 09 October 2021
MD5Sum:
 7fdf4db15250af5368cc52a91e8edbce   738242 contrib/Contents-all
 cbd7bc4d3eb517ac2b22f929dfc07b47    57319 contrib/Contents-all.gz
 1d6a5b8b36a9f6a8b3c5b1d2a1e5d2f1  8178140 main/binary-amd64/Packages
SHA256:
 3957f28db16e3f28c7b34ae84f1c929c567de6970f3f1b95dac9b498dd80fe63   738242 contrib/Contents-all
 3e9a121d599b56c08bc8f144e4830807c77c29d7114316d6984ba54695d3db7b    57319 contrib/Contents-all.gz
 8c6b4e6f4a1c2b9f1f0e2f1c3c1b4c9a6a5e1d2b3c4d5e6f708192a3b4c5d6e7  8178140 main/binary-amd64/Packages
 e8a7b8a3f4d2a1e6a0b3b7b1a8d9c0f1e2d3c4b5a697887766554433221100ff  1755362 main/binary-amd64/Packages.xz
 0d7e8f1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6  2176212 main/binary-amd64/Packages.gz
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(bullseyeRelease))
	require.NoError(t, err)

	assert.EqualValues(t, "Debian", f.Origin())
	assert.EqualValues(t, "stable", f.Suite())
	assert.EqualValues(t, "bullseye", f.Codename())
	assert.EqualValues(t, "11.1", f.Version())
	assert.True(t, f.AcquireByHash())

	date, ok, err := f.Date()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.EqualValues(t, time.Date(2021, time.October, 9, 9, 34, 56, 0, time.UTC).Unix(), date.Unix())

	_, ok, err = f.ValidUntil()
	assert.False(t, ok)
	assert.NoError(t, err)

	assert.EqualValues(t, []string{"main", "contrib", "non-free"}, f.Components())
	assert.Len(t, f.Architectures(), 10)
	assert.True(t, f.HasArchitecture("arm64"))
	assert.False(t, f.HasComponent("universe"))

	// one entry per listed line, per section
	assert.Len(t, f.Entries(MD5Sum), 3)
	assert.Len(t, f.Entries(SHA1), 0)
	assert.Len(t, f.Entries(SHA256), 5)

	e, ok := f.Entry("main/binary-amd64/Packages.xz", SHA256)
	assert.True(t, ok)
	assert.EqualValues(t, 1755362, e.Size)
	assert.EqualValues(t, "main/binary-amd64/by-hash/SHA256/e8a7b8a3f4d2a1e6a0b3b7b1a8d9c0f1e2d3c4b5a697887766554433221100ff", e.ByHashPath())

	kind, ok := f.StrongestChecksum()
	assert.True(t, ok)
	assert.EqualValues(t, SHA256, kind)
}

func TestFile_PackagesIndex(t *testing.T) {
	f, err := Parse(strings.NewReader(bullseyeRelease))
	require.NoError(t, err)

	var cases = []struct {
		name      string
		component string
		arch      string
		kind      ChecksumKind
		order     []requestutil.Compression
		ok        bool
		out       requestutil.Compression
	}{
		{"default order prefers xz", "main", "amd64", SHA256, nil, true, requestutil.CompressionXZ},
		{"custom order", "main", "amd64", SHA256, []requestutil.Compression{requestutil.CompressionGzip, requestutil.CompressionXZ}, true, requestutil.CompressionGzip},
		{"falls back to uncompressed", "main", "amd64", MD5Sum, nil, true, requestutil.CompressionNone},
		{"missing architecture", "main", "s390x", SHA256, nil, false, ""},
		{"missing kind", "main", "amd64", SHA1, nil, false, ""},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			e, c, ok := f.PackagesIndex(tt.component, tt.arch, tt.kind, tt.order...)
			assert.EqualValues(t, tt.ok, ok)
			assert.EqualValues(t, tt.out, c)
			if ok {
				assert.EqualValues(t, PackagesPath(tt.component, tt.arch, c), e.Path)
			}
		})
	}
}

func TestParse_MalformedChecksum(t *testing.T) {
	var cases = []string{
		"SHA256:\n abc 12\n",
		"SHA256:\n abc twelve main/binary-amd64/Packages\n",
		"MD5Sum:\n abc 12 main/binary-amd64/Packages extra\n",
	}
	for _, tt := range cases {
		t.Run(tt, func(t *testing.T) {
			_, err := Parse(strings.NewReader("Origin: Debian\n" + tt))
			assert.ErrorIs(t, err, ErrMalformedChecksum)
		})
	}
}

func TestFile_Dates(t *testing.T) {
	var cases = []struct {
		in string
		ok bool
	}{
		{"Sat, 09 Oct 2021 09:34:56 UTC", true},
		{"Sat, 9 Oct 2021 09:34:56 UTC", true},
		{"Sat, 09 Oct 2021 09:34:56 +0000", true},
		{"2021-10-09", false},
	}
	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			f, err := Parse(strings.NewReader("Valid-Until: " + tt.in + "\n"))
			require.NoError(t, err)
			_, present, err := f.ValidUntil()
			assert.True(t, present)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExtractSignedPayload(t *testing.T) {
	t.Run("unverifiable signature", func(t *testing.T) {
		in := `Some leading text
-----BEGIN PGP SIGNED MESSAGE-----
Hash: SHA256

Origin: Debian
Description: test
- - dash-prefixed
-----BEGIN PGP SIGNATURE-----

iQIzBAEBCAAdFiEEnot-a-real-signature
-----END PGP SIGNATURE-----
trailing text
`
		out, err := ExtractSignedPayload([]byte(in))
		require.NoError(t, err)
		assert.EqualValues(t, "Origin: Debian\nDescription: test\n- dash-prefixed\n", string(out))
	})
	t.Run("dash escaped lines", func(t *testing.T) {
		in := "-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA512\n\nOrigin: Debian\n- -----\n- dash-prefixed\n-----BEGIN PGP SIGNATURE-----\n-----END PGP SIGNATURE-----\n"
		out, err := ExtractSignedPayload([]byte(in))
		require.NoError(t, err)
		assert.EqualValues(t, "Origin: Debian\n-----\ndash-prefixed\n", string(out))
	})
	t.Run("missing signature", func(t *testing.T) {
		_, err := ExtractSignedPayload([]byte("-----BEGIN PGP SIGNED MESSAGE-----\nHash: SHA256\n\nOrigin: Debian\n"))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})
	t.Run("not armored", func(t *testing.T) {
		_, err := ExtractSignedPayload([]byte(bullseyeRelease))
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
		assert.False(t, IsArmored([]byte(bullseyeRelease)))
	})
}

func TestExtractSignedPayload_Fallback(t *testing.T) {
	entity, err := openpgp.NewEntity("Archive Signing Key", "", "ftpmaster@example.org", nil)
	require.NoError(t, err)

	var cases = []struct {
		name string
		in   string
		out  string
	}{
		{
			"trailing newline",
			"Origin: Debian\n- dash-prefixed\n-----\nSuite: stable\n",
			"Origin: Debian\n- dash-prefixed\n-----\nSuite: stable\n",
		},
		{
			"no trailing newline",
			"Origin: Debian\nSuite: stable",
			"Origin: Debian\nSuite: stable\n",
		},
		{
			"trailing whitespace",
			"Origin: Debian \t\nSuite: stable\n",
			"Origin: Debian\nSuite: stable\n",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := clearsign.Encode(&buf, entity.PrivateKey, nil)
			require.NoError(t, err)
			_, err = w.Write([]byte(tt.in))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			decoded, err := ExtractSignedPayload(buf.Bytes())
			require.NoError(t, err)
			assert.EqualValues(t, tt.out, string(decoded))

			// without the closing armor line only the line reader can
			// recover the payload
			damaged := strings.Replace(buf.String(), "-----END PGP SIGNATURE-----", "", 1)
			block, _ := clearsign.Decode([]byte(damaged))
			require.Nil(t, block)
			fallback, err := ExtractSignedPayload([]byte(damaged))
			require.NoError(t, err)
			assert.EqualValues(t, string(decoded), string(fallback))
		})
	}
}

func TestParseArmored(t *testing.T) {
	entity, err := openpgp.NewEntity("Archive Signing Key", "", "ftpmaster@example.org", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, entity.PrivateKey, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte(bullseyeRelease))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.True(t, IsArmored(buf.Bytes()))

	f, err := ParseArmored(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.EqualValues(t, "bullseye", f.Codename())
	assert.Len(t, f.Entries(SHA256), 5)
}
