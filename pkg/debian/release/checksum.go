package release

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"path"
	"strconv"
	"strings"
)

var ErrMalformedChecksum = errors.New("malformed checksum entry")

// ChecksumKind names a checksum section of a Release file. The
// value doubles as the directory name used by the by-hash layout.
type ChecksumKind string

const (
	MD5Sum ChecksumKind = "MD5Sum"
	SHA1   ChecksumKind = "SHA1"
	SHA256 ChecksumKind = "SHA256"
)

// ChecksumKinds returns the supported kinds, strongest first.
func ChecksumKinds() []ChecksumKind {
	return []ChecksumKind{SHA256, SHA1, MD5Sum}
}

// New returns a hash implementing the checksum kind.
func (k ChecksumKind) New() hash.Hash {
	switch k {
	case MD5Sum:
		return md5.New()
	case SHA1:
		return sha1.New()
	default:
		return sha256.New()
	}
}

func (k ChecksumKind) String() string {
	return string(k)
}

// Entry is a single "digest size path" line of a checksum section.
type Entry struct {
	Path   string
	Kind   ChecksumKind
	Digest string
	Size   uint64
}

// ByHashPath returns the digest-addressed location of the entry,
// e.g. main/binary-amd64/by-hash/SHA256/<digest>.
func (e Entry) ByHashPath() string {
	return path.Join(path.Dir(e.Path), "by-hash", string(e.Kind), e.Digest)
}

func parseEntry(kind ChecksumKind, line string) (Entry, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return Entry{}, fmt.Errorf("%w: expected 'digest size path' in %s section, got %q", ErrMalformedChecksum, kind, line)
	}
	size, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: size %q is not a number", ErrMalformedChecksum, parts[1])
	}
	return Entry{
		Path:   parts[2],
		Kind:   kind,
		Digest: strings.ToLower(parts[0]),
		Size:   size,
	}, nil
}
