package debian

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/djcass44/deb-resolver/pkg/airutil"
	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/lockfile"
	"github.com/djcass44/deb-resolver/pkg/repository"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// fetched is a single Packages index and the repository it was
// read from.
type fetched struct {
	index *debian.Index
	base  string
}

func (o Options) open(ctx context.Context, rawURL string) (repository.Reader, error) {
	if o.Open != nil {
		return o.Open(ctx, rawURL)
	}
	uri, err := url.Parse(rawURL)
	if err == nil && (uri.Scheme == "http" || uri.Scheme == "https") {
		return repository.NewRootClient(rawURL, repository.WithHTTPClient(o.HTTPClient))
	}
	if o.Downloader == nil {
		return nil, fmt.Errorf("%w: %s can only be read through a downloader", repository.ErrInvalidURL, rawURL)
	}
	return o.Downloader.NewReader(rawURL), nil
}

// fetchRepositories reads every Packages index named by repos. The
// result keeps the configuration order regardless of which fetch
// finishes first.
func fetchRepositories(ctx context.Context, arch string, repos []v1.Repository, opts Options) ([]fetched, error) {
	log := logr.FromContextOrDiscard(ctx)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	// fetch the release files first, they decide which
	// indices exist
	releases := make([]*repository.ReleaseClient, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, repo := range repos {
		g.Go(func() error {
			rc, err := fetchRelease(gctx, repo, opts)
			if err != nil {
				return fmt.Errorf("repository %s: %w", repo.URL, err)
			}
			releases[i] = rc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type job struct {
		rc        *repository.ReleaseClient
		repo      v1.Repository
		component string
		arch      string
	}
	var jobs []job
	for i, repo := range repos {
		components := repo.Components
		if len(components) == 0 {
			components = []string{"main"}
		}
		architectures := repo.Architectures
		if len(architectures) == 0 {
			if !releases[i].Release().HasArchitecture(arch) && len(releases[i].Release().Architectures()) > 0 {
				log.Info("repository does not publish the native architecture", "url", repo.URL, "arch", arch)
				continue
			}
			architectures = []string{arch}
		}
		for _, c := range components {
			for _, a := range architectures {
				jobs = append(jobs, job{rc: releases[i], repo: repo, component: c, arch: a})
			}
		}
	}

	out := make([]fetched, len(jobs))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			idx, err := j.rc.ResolvePackages(gctx, j.component, j.arch, j.repo.ByHash)
			if err != nil {
				return fmt.Errorf("repository %s (%s/%s): %w", j.repo.URL, j.component, j.arch, err)
			}
			log.V(2).Info("added index", "count", idx.Count(), "source", j.repo.URL, "component", j.component, "arch", j.arch)
			out[i] = fetched{index: idx, base: j.repo.URL}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func fetchRelease(ctx context.Context, repo v1.Repository, opts Options) (*repository.ReleaseClient, error) {
	root, err := opts.open(ctx, airutil.ExpandEnv(repo.URL))
	if err != nil {
		return nil, err
	}
	var dist *repository.DistributionClient
	switch {
	case repo.Path != "":
		dist = repository.NewDistributionClient(root, repo.Path)
	case repo.Distribution != "":
		dist = repository.Distribution(root, repo.Distribution)
	default:
		return nil, fmt.Errorf("one of distribution or path must be set")
	}
	rc, err := dist.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(repo.Compression) > 0 {
		order := make([]requestutil.Compression, len(repo.Compression))
		for i, s := range repo.Compression {
			c, err := requestutil.ParseCompression(s)
			if err != nil {
				return nil, err
			}
			order[i] = c
		}
		rc.SetPreferredCompression(order...)
	}
	return rc, nil
}

// readFile downloads a .deb and reads its control data.
func readFile(ctx context.Context, file v1.File, opts Options) (*debian.BinaryPackage, string, error) {
	if opts.Downloader == nil {
		return nil, "", fmt.Errorf("a downloader is required to read %s", file.URI)
	}
	path, err := opts.Downloader.Download(ctx, airutil.ExpandEnv(file.URI))
	if err != nil {
		return nil, "", err
	}
	digest, err := lockfile.Sha256(path)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	p, err := debian.ReadArchiveControl(ctx, f)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", file.URI, err)
	}
	return p, digest, nil
}
