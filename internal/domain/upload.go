package domain

import "context"

// ImageUploader stores image bytes with an external host and returns the
// public URL. It replaces the local blob FileStore so the backend can be
// any S3-compatible service.
type ImageUploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
