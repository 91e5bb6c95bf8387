// Package storage wraps the S3 operations the job needs: recursive listing
// of JSON objects, streaming downloads, and managed uploads.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Client talks to S3. The interface fields exist so tests can inject fakes.
type Client struct {
	api      s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

// New builds a Client on top of an AWS session.
func New(sess *session.Session) *Client {
	return &Client{
		api:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}
}

// NewWithAPI builds a Client from explicit API implementations.
func NewWithAPI(api s3iface.S3API, uploader s3manageriface.UploaderAPI) *Client {
	return &Client{api: api, uploader: uploader}
}

// ListJSONKeys returns every .json key under prefix, in listing order.
// S3 has no directories, so a prefix listing is already recursive.
func (c *Client) ListJSONKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	err := c.api.ListObjectsV2PagesWithContext(ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
			Prefix: aws.String(prefix),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				if strings.HasSuffix(*obj.Key, ".json") {
					keys = append(keys, *obj.Key)
				}
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}
	return keys, nil
}

// Open streams the body of one object. The caller closes it.
func (c *Client) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Upload writes body to the given key and verifies the object landed.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}

	_, err = c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("upload verification failed for s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
