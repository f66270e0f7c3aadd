// Package source provides read access to gallery assets (the descriptor and
// the image files) from a local directory, an HTTP origin or an S3 bucket.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the requested asset does not exist.
	ErrNotFound = errors.New("asset not found")
	// ErrCrossOrigin is returned when a cross-origin fetch is refused by the server.
	ErrCrossOrigin = errors.New("cross-origin read not permitted")
)

// Driver names a Source implementation.
type Driver string

const (
	DriverFile Driver = "file"
	DriverHTTP Driver = "http"
	DriverS3   Driver = "s3"
)

// FetchOptions tune a single Open call. Drivers without an HTTP leg ignore them.
type FetchOptions struct {
	// CrossOrigin asks the server to authorize the read for a foreign origin.
	CrossOrigin bool
	// CacheBust appends a timestamp query parameter so caches are bypassed.
	CacheBust bool
}

// Source opens named assets. Names are slash separated and relative, for
// example "images/gallery.json".
type Source interface {
	Open(ctx context.Context, name string, opts FetchOptions) (io.ReadCloser, error)
}

// Config selects and configures a Source.
type Config struct {
	Driver  Driver
	Root    string        // file driver: directory holding the assets
	BaseURL string        // http driver: URL the names are resolved against
	Origin  string        // http driver: origin announced on cross-origin reads
	Timeout time.Duration // http driver: per request timeout
	S3      S3Config
}

// New builds the Source named by cfg.Driver. An empty driver means file.
func New(ctx context.Context, cfg Config) (Source, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFile(cfg.Root), nil
	case DriverHTTP:
		return NewHTTP(cfg.BaseURL, HTTPOptions{Origin: cfg.Origin, Timeout: cfg.Timeout})
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}
