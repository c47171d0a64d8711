// Package vpath implements the virtual path namespace: every file path in the
// public interface is prefixed with the container that owns it, e.g.
// "backend/app/models.py". The resolver maps such paths back to a
// (container, in-container relative path) pair.
package vpath

import (
	"slices"
	"strings"
)

// Path is a resolved virtual path. Rel is always relative (no leading
// separator); an empty Rel refers to the container root.
type Path struct {
	Container string
	Rel       string
}

// String returns the container-prefixed form.
func (p Path) String() string {
	if p.Rel == "" {
		return p.Container
	}
	return p.Container + "/" + p.Rel
}

// Resolver validates virtual paths against a fixed set of container names.
// The set is static configuration injected at construction.
type Resolver struct {
	containers []string
}

// NewResolver creates a resolver over the given addressable containers.
func NewResolver(containers []string) *Resolver {
	return &Resolver{containers: containers}
}

// Containers returns the addressable container set.
func (r *Resolver) Containers() []string {
	return r.containers
}

// Valid reports whether name is an addressable container.
func (r *Resolver) Valid(name string) bool {
	return slices.Contains(r.containers, name)
}

// Resolve splits a virtual path on its first separator and validates the
// leading segment. An unresolvable container name is a validation failure,
// never a silent default. The remainder is stripped of any leading
// separator; an empty remainder is legal and refers to the container root.
func (r *Resolver) Resolve(virtual string) (Path, error) {
	if virtual == "" {
		return Path{}, ErrPathRequired
	}

	container, rest, _ := strings.Cut(virtual, "/")
	if !r.Valid(container) {
		return Path{}, &ResolveError{Path: virtual}
	}

	return Path{
		Container: container,
		Rel:       strings.TrimPrefix(rest, "/"),
	}, nil
}
