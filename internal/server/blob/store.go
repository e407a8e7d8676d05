// Package blob defines the byte-storage port of the file registry and its
// local-filesystem and S3 implementations. Keys are the generated stored
// filenames; the metadata store holds everything else.
package blob

import "context"

// Store persists raw file content under opaque keys.
// Get returns common.ErrorNotFound when the key has no backing bytes.
// Delete of a missing key is not an error.
type Store interface {
	Save(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
