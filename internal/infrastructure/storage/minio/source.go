package minio

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// Open returns a reader over the object named by uri (s3://bucket/key).
func (c *Client) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	body, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(uri).WithCause(err)
		}
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to open object").WithDetail(uri)
	}
	c.logger.Debug("Opened object", logging.String("bucket", bucket), logging.String("key", key))
	return body, nil
}

// Exists reports whether uri names an existing object.
func (c *Client) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return false, err
	}
	if _, err := c.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat object").WithDetail(uri)
	}
	return true, nil
}

//Personal.AI order the ending
