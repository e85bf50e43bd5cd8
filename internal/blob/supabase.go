package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/supabase-community/supabase-go"
)

// SupabaseUploader stores blobs in a Supabase storage bucket.
type SupabaseUploader struct {
	client *supabase.Client
	bucket string
}

// NewSupabaseUploader creates an uploader writing to the given bucket.
// The bucket must exist and be configured for public reads.
func NewSupabaseUploader(projectURL, serviceRoleKey, bucket string) (*SupabaseUploader, error) {
	client, err := supabase.NewClient(projectURL, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseUploader{client: client, bucket: bucket}, nil
}

// Upload stores the blob at the given bucket-relative path and returns
// its public URL. The storage client carries the context inside its own
// HTTP requests.
func (u *SupabaseUploader) Upload(_ context.Context, path string, r io.Reader) (*Uploaded, error) {
	if _, err := u.client.Storage.UploadFile(u.bucket, path, r); err != nil {
		return nil, fmt.Errorf("failed to upload blob %s: %w", path, err)
	}
	public := u.client.Storage.GetPublicUrl(u.bucket, path)
	return &Uploaded{URL: public.SignedURL, Path: path}, nil
}
