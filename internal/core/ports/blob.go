package ports

import "context"

// BlobStore holds attachment content. Only metadata lives in the relational store.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
}
