package repository

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/djcass44/deb-resolver/pkg/debian/release"
)

// verifyingReader checks the size and digest of a stream against
// a Release checksum entry once the stream is exhausted. Errors
// are sticky.
type verifyingReader struct {
	r     io.Reader
	entry release.Entry
	hash  hash.Hash
	n     uint64
	err   error
}

func newVerifyingReader(r io.Reader, entry release.Entry) *verifyingReader {
	return &verifyingReader{
		r:     r,
		entry: entry,
		hash:  entry.Kind.New(),
	}
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	if v.err != nil {
		return 0, v.err
	}
	n, err := v.r.Read(p)
	v.n += uint64(n)
	v.hash.Write(p[:n])

	if v.n > v.entry.Size {
		v.err = fmt.Errorf("%w: %s is larger than %d bytes", ErrSizeMismatch, v.entry.Path, v.entry.Size)
		return n, v.err
	}
	if err == io.EOF {
		v.err = v.check()
		if v.err != nil {
			return n, v.err
		}
		v.err = io.EOF
	} else if err != nil {
		v.err = err
	}
	return n, err
}

func (v *verifyingReader) check() error {
	if v.n != v.entry.Size {
		return fmt.Errorf("%w: %s is %d bytes, expected %d", ErrSizeMismatch, v.entry.Path, v.n, v.entry.Size)
	}
	if digest := hex.EncodeToString(v.hash.Sum(nil)); digest != v.entry.Digest {
		return fmt.Errorf("%w: %s %s is %s, expected %s", ErrDigestMismatch, v.entry.Path, v.entry.Kind, digest, v.entry.Digest)
	}
	return nil
}

// drain consumes whatever a decompressor left unread so that the
// checks run.
func (v *verifyingReader) drain() error {
	_, err := io.Copy(io.Discard, v)
	return err
}
