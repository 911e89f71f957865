package repository

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("path not found")
	ErrStatus          = errors.New("unexpected status code")
	ErrTransport       = errors.New("transport failure")
	ErrInvalidURL      = errors.New("invalid repository url")
	ErrNoPackagesIndex = errors.New("no packages index for requested checksum kind")

	ErrIntegrity      = errors.New("integrity check failed")
	ErrSizeMismatch   = fmt.Errorf("%w: size mismatch", ErrIntegrity)
	ErrDigestMismatch = fmt.Errorf("%w: digest mismatch", ErrIntegrity)
)

// PathError records the repository path that a fetch failed for.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the server responds with anything
// other than 200. A 404 or 410 unwraps to ErrNotFound, everything
// else unwraps to ErrStatus.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound || e.Code == http.StatusGone {
		return ErrNotFound
	}
	return ErrStatus
}
