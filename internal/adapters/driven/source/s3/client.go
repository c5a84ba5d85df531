// Package s3 reads object metadata from an S3-compatible store. The
// account is ignored, containers map to buckets, and object metadata is
// presented with the same keys a Swift cluster returns.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

const amzMetaPrefix = "x-amz-meta-"

// Ensure Client implements the interface.
var _ driven.ObjectSource = (*Client)(nil)

// Config configures the S3 connection.
type Config struct {
	// Endpoint is a host[:port] or a URL. An https URL enables TLS.
	Endpoint string

	AccessKey string
	SecretKey string

	// Region avoids a bucket location lookup when set.
	Region string

	UseSSL bool

	// PathStyle forces path-style bucket addressing.
	PathStyle bool

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// Client fetches object metadata with StatObject.
type Client struct {
	client *minio.Client
}

// New creates a client. No request is made until first use.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", domain.ErrInvalidInput)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: credentials are required", domain.ErrInvalidInput)
	}

	endpoint, useSSL := cfg.Endpoint, cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	opts := &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    useSSL,
		Region:    cfg.Region,
		Transport: cfg.Transport,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Client{client: client}, nil
}

// ObjectMetadata stats the object. preferNewest has no effect since reads
// are strongly consistent.
func (c *Client) ObjectMetadata(
	ctx context.Context, account, container, name string, _ bool,
) (domain.ObjectMetadata, error) {
	info, err := c.client.StatObject(ctx, container, name, minio.StatObjectOptions{})
	if err != nil {
		return nil, classifyError(err, account+"/"+container+"/"+name)
	}
	return objectMetadata(info), nil
}

// objectMetadata converts stat results to Swift-style metadata.
func objectMetadata(info minio.ObjectInfo) domain.ObjectMetadata {
	meta := domain.ObjectMetadata{
		domain.FieldContentLength: strconv.FormatInt(info.Size, 10),
	}
	if info.ContentType != "" {
		meta[domain.FieldContentType] = info.ContentType
	}
	if info.ETag != "" {
		meta[domain.FieldETag] = strings.Trim(info.ETag, `"`)
	}
	if !info.LastModified.IsZero() {
		modified := info.LastModified.UTC()
		meta[domain.FieldLastModified] = modified.Format(http.TimeFormat)
		meta[domain.FieldTimestamp] = domain.TimestampFromTime(modified).String()
	}

	for k, values := range info.Metadata {
		lower := strings.ToLower(k)
		if !strings.HasPrefix(lower, amzMetaPrefix) || len(values) == 0 {
			continue
		}
		meta[domain.UserMetaPrefix+lower[len(amzMetaPrefix):]] = values[0]
	}
	for k, v := range info.UserMetadata {
		key := domain.UserMetaPrefix + strings.TrimPrefix(strings.ToLower(k), amzMetaPrefix)
		if _, ok := meta[key]; !ok {
			meta[key] = v
		}
	}
	return meta
}

func classifyError(err error, object string) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, object)
	case resp.Code == "SlowDown" || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %v", domain.ErrRateLimited, object, err)
	}
	return fmt.Errorf("stat %s: %w", object, err)
}
