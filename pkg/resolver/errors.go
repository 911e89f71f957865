package resolver

import (
	"errors"
	"fmt"

	"github.com/djcass44/deb-resolver/pkg/debian"
	"github.com/djcass44/deb-resolver/pkg/debian/dependency"
)

var ErrUnresolved = errors.New("unresolved dependency")

// UnresolvedError describes an expression that no package in the
// pool could satisfy.
type UnresolvedError struct {
	// Package is the package whose relationship field holds the expression.
	Package    *debian.BinaryPackage
	Kind       debian.Relationship
	Expression dependency.Expression
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s: %s: no matching package", e.Package, e.Kind, e.Expression)
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolved
}
