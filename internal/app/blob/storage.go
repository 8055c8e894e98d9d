// Package blob abstracts where uploaded application documents live.
package blob

import (
	"context"
	"io"
	"time"
)

// Storage stores document files and hands out retrieval URLs.
type Storage interface {
	// Save writes the object under key and returns its storage location
	// (a path or key usable for later retrieval).
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// SignedURL returns a time-limited retrieval URL for the object.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
