package payment

import (
	"context"
	"fmt"
	"io"
)

// ObjectReader fetches objects from a bucket
type ObjectReader interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

// S3Source reads payment rows from a CSV object stored in S3
type S3Source struct {
	objects ObjectReader
	key     string
	cols    Columns
}

// NewS3Source creates a source for the object key
func NewS3Source(objects ObjectReader, key string, cols Columns) *S3Source {
	return &S3Source{objects: objects, key: key, cols: cols}
}

func (s *S3Source) Name() string {
	return fmt.Sprintf("object \"s3://%s/%s\"", s.objects.Bucket(), s.key)
}

func (s *S3Source) Rows(ctx context.Context) ([]Row, error) {
	body, err := s.objects.GetObject(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ReadCSVRows(body, s.cols)
}
