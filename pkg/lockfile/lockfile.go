package lockfile

import (
	"fmt"
	"slices"
	"sort"

	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
)

// New returns an empty lockfile.
func New(name, arch string) *Lock {
	return &Lock{
		Name:            name,
		LockfileVersion: 1,
		Architecture:    arch,
		Packages:        map[string]Package{},
	}
}

// Add records a package. When the package is already present the
// entries are merged: requested expressions accumulate and a root
// entry replaces the provenance of a transitive one. It returns
// false if the package was already present.
func (l *Lock) Add(p Package) bool {
	if l.Packages == nil {
		l.Packages = map[string]Package{}
	}
	existing, ok := l.Packages[p.Name]
	if !ok {
		l.Packages[p.Name] = p
		return true
	}
	for _, r := range p.Requested {
		if !slices.Contains(existing.Requested, r) {
			existing.Requested = append(existing.Requested, r)
		}
	}
	if p.Source == "" {
		existing.Source = ""
		existing.Kind = ""
	}
	l.Packages[p.Name] = existing
	return false
}

// Roots returns the packages that were requested directly by the
// configuration, sorted by name.
func (l *Lock) Roots() []Package {
	var out []Package
	for _, k := range l.SortedKeys() {
		p := l.Packages[k]
		if p.Type == v1.PackageDebian && p.Source == "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration file lines up
// with what we expect from the lockfile and vice versa
func (l *Lock) Validate(cfg v1.ResolveSpec) error {
	requested := map[string]struct{}{}
	for _, p := range l.Packages {
		for _, r := range p.Requested {
			requested[r] = struct{}{}
		}
	}
	// check that the requested packages are all in the lockfile
	for _, p := range cfg.Packages {
		for _, n := range p.Names {
			if _, ok := requested[n]; !ok {
				return fmt.Errorf("package not found in lock: %s", n)
			}
		}
	}
	// check that the files are all in the lockfile
	for _, f := range cfg.Files {
		if _, ok := l.Packages[f.URI]; !ok {
			return fmt.Errorf("file not found in lock: %s", f.URI)
		}
	}

	// now we do the reverse

	for k, v := range l.Packages {
		if k == "" {
			continue
		}
		var found bool
		// check that the lock file are all present in the manifest
		if v.Type == v1.PackageFile {
			for _, f := range cfg.Files {
				if f.URI == k {
					found = true
				}
			}
			if !found {
				return fmt.Errorf("file found in lock, but not manifest: %s", k)
			}
			continue
		}
		// transitive packages are checked through their roots
		if v.Source != "" {
			continue
		}
		for _, p := range cfg.Packages {
			for _, n := range p.Names {
				if slices.Contains(v.Requested, n) {
					found = true
				}
			}
		}
		if !found {
			return fmt.Errorf("package found in lock, but not manifest: %s", k)
		}
	}

	return nil
}

// SortedKeys returns package names
// sorted alphabetically.
func (l *Lock) SortedKeys() []string {
	pkgKeys := make([]string, 0, len(l.Packages))
	for k := range l.Packages {
		pkgKeys = append(pkgKeys, k)
	}
	sort.Strings(pkgKeys)
	return pkgKeys
}
