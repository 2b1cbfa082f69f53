package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/Abraxas-365/hireline/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3FileSystem stores files as objects in one bucket under an optional prefix
type S3FileSystem struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ fsx.FileSystem = (*S3FileSystem)(nil)

func NewS3FileSystem(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (fs *S3FileSystem) key(p string) string {
	if fs.prefix == "" {
		return path.Clean(p)
	}
	return path.Join(fs.prefix, p)
}

func (fs *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	out, err := fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(p)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fsx.ErrNotExist
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (fs *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(p)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fs *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(p)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := fs.client.PutObject(ctx, input)
	return err
}

func (fs *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	_, err := fs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(p)),
	})
	return err
}
