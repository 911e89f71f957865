package lockfile

import v1 "github.com/djcass44/deb-resolver/pkg/api/v1"

type Lock struct {
	Name            string             `json:"name"`
	LockfileVersion int                `json:"lockfileVersion"`
	Architecture    string             `json:"architecture,omitempty"`
	Packages        map[string]Package `json:"packages"`
}

type Package struct {
	Name         string         `json:"-"`
	Type         v1.PackageType `json:"type"`
	Version      string         `json:"version"`
	Architecture string         `json:"architecture,omitempty"`
	Resolved     string         `json:"resolved"`
	Integrity    string         `json:"integrity"`
	// Source is the package whose relationship pulled this one in.
	// It is empty for packages named by the configuration.
	Source string `json:"source,omitempty"`
	Kind   string `json:"kind,omitempty"`
	// Requested lists the configuration expressions that selected
	// a root package.
	Requested []string `json:"requested,omitempty"`
}
