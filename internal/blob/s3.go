package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3 uploads objects to a bucket and derives public URLs from a base URL.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ Store = (*S3)(nil)

// NewS3 creates an object-storage store. baseURL is the public prefix the
// bucket is served from, without a trailing slash.
func NewS3(client *s3.Client, bucket, baseURL string) *S3 {
	return &S3{client: client, bucket: bucket, baseURL: baseURL}
}

func (s *S3) Put(ctx context.Context, obj Object) (StorageResult, error) {
	key := path.Join(obj.RemoteDir, obj.Filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(obj.Data),
		ContentType: &obj.ContentType,
	})
	if err != nil {
		return StorageResult{}, fmt.Errorf("PutObject %s: %w", key, err)
	}

	log.Debug().Str("key", key).Int("bytes", len(obj.Data)).Msg("Image uploaded to S3")

	return StorageResult{
		RemoteKey: key,
		RemoteURL: s.baseURL + "/" + key,
	}, nil
}
