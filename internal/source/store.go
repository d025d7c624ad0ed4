// Package source provides the loaders that turn files into datasets.
//
// Files are opened through a Store. FSStore reads from any afero
// filesystem (the local disk in production, an in-memory filesystem in
// tests) and S3Store reads s3://bucket/key paths. Router dispatches on the
// path scheme. Loaders are lazy: a file is read when an action evaluates
// the dataset, not when the dataset is created.
package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// Store opens files for reading.
type Store interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FSStore reads files from an afero filesystem.
type FSStore struct {
	fs afero.Fs
}

// NewFSStore creates a store over fs.
func NewFSStore(fs afero.Fs) *FSStore {
	return &FSStore{fs: fs}
}

// NewOSStore creates a store over the local filesystem.
func NewOSStore() *FSStore {
	return NewFSStore(afero.NewOsFs())
}

// Open opens path. A file:// prefix is accepted and stripped.
func (s *FSStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fs.Open(strings.TrimPrefix(path, "file://"))
}

// Router opens s3:// paths with one store and everything else with another.
type Router struct {
	local  Store
	remote Store
}

// NewRouter creates a router. remote may be nil, in which case s3:// paths fail.
func NewRouter(local, remote Store) *Router {
	return &Router{local: local, remote: remote}
}

// Open opens path with the store that serves its scheme.
func (r *Router) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	scheme, _, found := strings.Cut(path, "://")
	if !found || scheme == "file" {
		return r.local.Open(ctx, path)
	}
	if scheme == s3Scheme && r.remote != nil {
		return r.remote.Open(ctx, path)
	}
	return nil, fmt.Errorf("unsupported path scheme %q", scheme)
}
