package pages

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
)

// S3Client defines the interface for the S3 operations the store uses.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 serves page images from objects under a bucket prefix. The object key
// is the prefix followed by the page identifier.
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 returns an S3 store reading from bucket under prefix.
func NewS3(client S3Client, bucket, prefix string) *S3 {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a page identifier.
func (s *S3) Key(id string) string {
	return s.prefix + strings.TrimPrefix(id, "/")
}

// Get implements Store.
func (s *S3) Get(ctx context.Context, id string) ([]byte, error) {
	key := s.Key(id)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errors.Wrapf(pagex.ErrPageNotFound, "page %q: no object s3://%s/%s", id, s.bucket, key)
		}
		return nil, errors.Wrapf(err, "failed to get s3://%s/%s", s.bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read s3://%s/%s", s.bucket, key)
	}
	return data, nil
}
