package persist

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const snapshotContentType = "application/json"

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type objectUploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store keeps the snapshot as a single object in an S3 bucket.
type S3Store struct {
	bucket   string
	key      string
	client   objectGetter
	uploader objectUploader
}

// NewS3Store keeps the snapshot as object key in bucket.
func NewS3Store(bucket, key string, client *s3.Client) *S3Store {
	return &S3Store{
		bucket:   bucket,
		key:      key,
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// Load downloads the snapshot. A missing object is ErrNotFound.
func (s *S3Store) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}

		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// Save uploads the snapshot, replacing the previous one.
func (s *S3Store) Save(ctx context.Context, b []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(b),
		ContentType: aws.String(snapshotContentType),
	})

	return err
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey

	return errors.As(err, &nsk)
}
