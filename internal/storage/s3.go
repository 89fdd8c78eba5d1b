package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores files in a bucket under "<kind>/<name>". Refs are public URLs
// formed from publicBaseURL.
type S3 struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

// NewS3 builds a client from the default AWS credential chain (env vars,
// shared config, instance role). publicBaseURL defaults to the bucket's
// virtual-hosted URL; set it when serving through a CDN or an
// S3-compatible provider.
func NewS3(ctx context.Context, bucket, publicBaseURL string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: loading aws config: %w", err)
	}
	return newS3(s3.NewFromConfig(cfg), bucket, publicBaseURL), nil
}

func newS3(client s3API, bucket, publicBaseURL string) *S3 {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *S3) Put(ctx context.Context, kind Kind, name, contentType string, r io.Reader) (string, error) {
	key := string(kind) + "/" + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading to s3: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.publicBaseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("storage: %q is not an object in bucket %s", ref, s.bucket)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: deleting %s from s3: %w", key, err)
	}
	return nil
}
