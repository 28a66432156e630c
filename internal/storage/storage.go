// Package storage persists named JSON blobs. The inventory state and the
// macro overrides are each one blob, written whole on every mutation.
package storage

import "context"

// BlobStore reads and replaces named blobs. Get reports ok=false when the
// blob has never been written.
type BlobStore interface {
	Get(ctx context.Context, name string) (payload []byte, ok bool, err error)
	Put(ctx context.Context, name string, payload []byte) error
}
