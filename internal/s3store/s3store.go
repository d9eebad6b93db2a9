package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yuya-takeyama/s3-to-b2/internal/checksum"
	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// fallbackRegion is used for the region lookup itself and when detection
// fails.
const fallbackRegion = "us-east-1"

// api is the subset of the S3 client the adapter uses.
type api interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client implements store.ObjectStore against a single S3 bucket.
type Client struct {
	api     api
	bucket  string
	region  string
	timeout time.Duration
}

// Options configures the S3 adapter.
type Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
}

// New builds the S3 adapter. Static credentials are used when both key
// parts are configured, otherwise the default chain applies. When no
// region is configured the bucket's region is looked up, falling back to
// us-east-1.
func New(ctx context.Context, opts Options) (*Client, error) {
	region := opts.Region
	if region == "" {
		region = fallbackRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	if opts.Region == "" {
		detected, err := manager.GetBucketRegion(ctx, client, opts.Bucket)
		if err == nil && detected != "" && detected != region {
			region = detected
			cfg.Region = detected
			client = s3.NewFromConfig(cfg)
		}
	}

	return &Client{
		api:     client,
		bucket:  opts.Bucket,
		region:  region,
		timeout: opts.Timeout,
	}, nil
}

// Region returns the region the client ended up bound to.
func (c *Client) Region() string {
	return c.region
}

// List enumerates the bucket under prefix, following pagination to the
// end.
func (c *Client) List(ctx context.Context, prefix string) ([]store.Object, error) {
	var objects []store.Object

	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, store.NewError(store.OpList, "", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			objects = append(objects, store.Object{
				Key:          *obj.Key,
				Size:         aws.ToInt64(obj.Size),
				ETag:         checksum.NormalizeETag(aws.ToString(obj.ETag)),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// Exists probes for key with a HEAD request. A missing object reports
// (false, nil).
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, store.NewError(store.OpExists, key, err)
	}
	return true, nil
}

// Fetch reads the whole object into memory along with its reported ETag
// and content type.
func (c *Client) Fetch(ctx context.Context, key string) (*store.Blob, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, store.NewError(store.OpFetch, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, store.NewError(store.OpFetch, key, fmt.Errorf("read body: %w", err))
	}

	return &store.Blob{
		Data:        data,
		ETag:        checksum.NormalizeETag(aws.ToString(out.ETag)),
		ContentType: contentTypeFor(key, aws.ToString(out.ContentType)),
	}, nil
}

// Put writes a full object body.
func (c *Client) Put(ctx context.Context, key string, blob *store.Blob, metadata map[string]string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(blob.Data),
		ContentLength: aws.Int64(int64(len(blob.Data))),
	}
	if blob.ContentType != "" {
		input.ContentType = aws.String(blob.ContentType)
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return store.NewError(store.OpStore, key, err)
	}
	return nil
}

// Remove deletes the object.
func (c *Client) Remove(ctx context.Context, key string) error {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return store.NewError(store.OpDelete, key, err)
	}
	return nil
}

// opContext caps a single object operation. Listing is left on the run
// context since its duration scales with bucket size.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

// contentTypeFor picks the content type carried to the destination: the
// source-reported value, then a guess from the key's extension, then the
// generic binary fallback.
func contentTypeFor(key, reported string) string {
	if reported != "" {
		return reported
	}
	if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
		return byExt
	}
	return store.DefaultContentType
}
