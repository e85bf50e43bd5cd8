// Package blob stores photo bytes outside the database and hands back
// stable URLs for the catalog.
package blob

import (
	"context"
	"io"
)

// Uploaded describes a stored blob.
type Uploaded struct {
	// URL is the public address clients load the photo from.
	URL string
	// Path is the bucket-relative location, kept so the blob can be
	// deleted later.
	Path string
}

// Uploader stores photo blobs. Implementations must be safe for
// concurrent use.
type Uploader interface {
	Upload(ctx context.Context, path string, r io.Reader) (*Uploaded, error)
}
