package store

import (
	"context"
	"time"
)

// DefaultContentType is used when neither the source nor the key's
// extension yields a content type.
const DefaultContentType = "application/octet-stream"

// Object is one entry in a store's listing.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Blob is a fully fetched object body together with the metadata the
// source reported for it.
type Blob struct {
	Data        []byte
	ETag        string
	ContentType string
}

// ObjectStore is the capability set the transfer engine needs from a
// backing store. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// List enumerates the objects under prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Exists probes for key. Implementations map their own not-found
	// condition to (false, nil); any other error is returned for the
	// caller to decide.
	Exists(ctx context.Context, key string) (bool, error)

	// Fetch reads the whole object body into memory.
	Fetch(ctx context.Context, key string) (*Blob, error)

	// Put writes a full object body with optional per-object metadata.
	Put(ctx context.Context, key string, blob *Blob, metadata map[string]string) error

	// Remove deletes the object.
	Remove(ctx context.Context, key string) error
}
