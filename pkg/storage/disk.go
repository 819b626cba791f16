// Package storage stores uploaded item images on a configurable disk.
//
// Three drivers are available:
//   - "local" local filesystem, served by the HTTP kernel under /storage
//   - "s3"    S3-compatible object storage (AWS S3, MinIO, R2)
//   - "gcs"   Google Cloud Storage
//
// Each driver returns the public URL of an object from URL, computed when the
// object is written.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when no object exists at path.
var ErrNotExist = errors.New("storage: object does not exist")

// Disk is the object storage driver interface.
type Disk interface {
	// Put writes r to path. contentType may be empty.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get returns the full content of the object at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string

	// Path recovers the object path from a URL this disk produced.
	Path(url string) (string, bool)
}
