package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
)

// RootClient reads from an archive served over HTTP. It is bound
// to the URL that follows "deb" in an apt sources line, e.g.
// https://deb.debian.org/debian.
type RootClient struct {
	client *http.Client
	root   *url.URL
}

type Option func(*RootClient)

// WithHTTPClient replaces the HTTP client used for requests.
// A nil client keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(r *RootClient) {
		if c != nil {
			r.client = c
		}
	}
}

// NewRootClient creates a client bound to rawURL. The URL path is
// given a trailing '/' so that relative paths resolve beneath it.
func NewRootClient(rawURL string, opts ...Option) (*RootClient, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		u.RawPath = ""
	}
	c := &RootClient{
		client: cleanhttp.DefaultPooledClient(),
		root:   u,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RootURL returns the normalised archive URL.
func (c *RootClient) RootURL() string {
	return c.root.String()
}

// Distribution returns a client for dists/<name>.
func (c *RootClient) Distribution(name string) *DistributionClient {
	return Distribution(c, name)
}

// DistributionRawPath returns a client for a distribution stored
// at a non-standard path beneath the root.
func (c *RootClient) DistributionRawPath(path string) *DistributionClient {
	return NewDistributionClient(c, path)
}

func (c *RootClient) GetPath(ctx context.Context, path string) (io.ReadCloser, error) {
	target := c.root.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/")})
	log := logr.FromContextOrDiscard(ctx).WithValues("url", target.String())
	log.V(1).Info("fetching path")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidURL, err)}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		log.V(1).Info("request failed", "error", err.Error())
		return nil, &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.V(1).Info("unexpected response", "code", resp.StatusCode)
		return nil, &PathError{Path: path, Err: &StatusError{URL: target.String(), Code: resp.StatusCode}}
	}
	log.V(2).Info("received response", "code", resp.StatusCode, "length", resp.ContentLength)
	return &transportBody{ReadCloser: resp.Body, path: path}, nil
}

// transportBody marks errors that happen while streaming the
// response as transport failures.
type transportBody struct {
	io.ReadCloser
	path string
}

func (b *transportBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		return n, &PathError{Path: b.path, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	return n, err
}
