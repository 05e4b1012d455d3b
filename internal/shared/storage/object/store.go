package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves uploaded documents and derived artifacts.
// Uploads are keyed by their sanitized file name, so re-uploading a name overwrites it.
type ObjectStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
