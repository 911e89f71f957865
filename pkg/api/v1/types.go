package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

type PackageType string

const (
	PackageDebian PackageType = "Debian"
	PackageFile   PackageType = "File"
)

type ResolveSpec struct {
	// Architecture is the native architecture used when a
	// dependency does not name one. Defaults to amd64.
	Architecture string       `json:"architecture,omitempty"`
	Repositories []Repository `json:"repositories,omitempty"`
	Packages     []Package    `json:"packages,omitempty"`
	// Relations lists the relationship fields to follow, e.g.
	// "Depends" or "Recommends". Defaults to Depends and Pre-Depends.
	Relations []string `json:"relations,omitempty"`
	Files     []File   `json:"files,omitempty"`
}

type Repository struct {
	URL string `json:"url"`
	// Distribution is a name under dists/, e.g. "bookworm".
	Distribution string `json:"distribution,omitempty"`
	// Path is used instead of Distribution for flat repositories
	// that do not follow the dists/ layout.
	Path          string   `json:"path,omitempty"`
	Components    []string `json:"components,omitempty"`
	Architectures []string `json:"architectures,omitempty"`
	ByHash        bool     `json:"byHash,omitempty"`
	Compression   []string `json:"compression,omitempty"`
}

type Package struct {
	Type PackageType `json:"type"`
	// Names are dependency expressions, e.g. "git" or "curl (>= 7.88)".
	Names []string `json:"names"`
}

// File is a local or remote .deb whose control data joins the
// package pool.
type File struct {
	URI string `json:"uri"`
}

type Resolve struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ResolveSpec `json:"spec"`
}
