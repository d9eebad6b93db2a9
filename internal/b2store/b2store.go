package b2store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Backblaze/blazer/b2"

	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// Client implements store.ObjectStore against a Backblaze B2 bucket.
type Client struct {
	bucket  *b2.Bucket
	timeout time.Duration
}

// Options configures the B2 adapter.
type Options struct {
	Bucket           string
	ApplicationKeyID string
	ApplicationKey   string
	Timeout          time.Duration
}

// New authorizes against the B2 API and binds to the configured bucket.
func New(ctx context.Context, opts Options) (*Client, error) {
	client, err := b2.NewClient(ctx, opts.ApplicationKeyID, opts.ApplicationKey, b2.UserAgent("s3-to-b2"))
	if err != nil {
		return nil, fmt.Errorf("authorize B2: %w", err)
	}

	bucket, err := client.Bucket(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open B2 bucket %s: %w", opts.Bucket, err)
	}

	return &Client{bucket: bucket, timeout: opts.Timeout}, nil
}

// List enumerates the bucket under prefix. Listing runs on the caller's
// context; only the per-object attribute reads are individually capped.
func (c *Client) List(ctx context.Context, prefix string) ([]store.Object, error) {
	var objects []store.Object

	iter := c.bucket.List(ctx, b2.ListPrefix(prefix))
	for iter.Next() {
		obj := iter.Object()

		attrs, err := c.attrs(ctx, obj)
		if err != nil {
			return nil, store.NewError(store.OpList, obj.Name(), err)
		}

		objects = append(objects, store.Object{
			Key:          obj.Name(),
			Size:         attrs.Size,
			ETag:         attrs.SHA1,
			LastModified: attrs.LastModified,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, store.NewError(store.OpList, "", err)
	}

	return objects, nil
}

// Exists probes for key. A missing object reports (false, nil).
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if _, err := c.bucket.Object(key).Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return false, nil
		}
		return false, store.NewError(store.OpExists, key, err)
	}
	return true, nil
}

// Fetch reads the whole object into memory.
func (c *Client) Fetch(ctx context.Context, key string) (*store.Blob, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	obj := c.bucket.Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, store.NewError(store.OpFetch, key, err)
	}

	r := obj.NewReader(ctx)
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, store.NewError(store.OpFetch, key, err)
	}

	return &store.Blob{
		Data:        data,
		ETag:        attrs.SHA1,
		ContentType: attrs.ContentType,
	}, nil
}

// Put uploads a full object body, carrying the content type and the
// per-object file info.
func (c *Client) Put(ctx context.Context, key string, blob *store.Blob, metadata map[string]string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	w := c.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(uploadAttrs(blob, metadata)))
	if _, err := io.Copy(w, bytes.NewReader(blob.Data)); err != nil {
		w.Close()
		return store.NewError(store.OpStore, key, err)
	}
	if err := w.Close(); err != nil {
		return store.NewError(store.OpStore, key, err)
	}
	return nil
}

// Remove deletes the object.
func (c *Client) Remove(ctx context.Context, key string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.bucket.Object(key).Delete(ctx); err != nil {
		return store.NewError(store.OpDelete, key, err)
	}
	return nil
}

func (c *Client) attrs(ctx context.Context, obj *b2.Object) (*b2.Attrs, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()
	return obj.Attrs(ctx)
}

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func uploadAttrs(blob *store.Blob, metadata map[string]string) *b2.Attrs {
	attrs := &b2.Attrs{ContentType: blob.ContentType}
	if attrs.ContentType == "" {
		attrs.ContentType = store.DefaultContentType
	}
	if len(metadata) > 0 {
		attrs.Info = metadata
	}
	return attrs
}
