// Package storage provides object storage access for source and translated documents.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// Fetcher retrieves the raw bytes of an object.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Writer persists an object.
type Writer interface {
	Write(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// ErrorClass categorizes storage failures for diagnostics.
type ErrorClass string

const (
	ClassNotFound     ErrorClass = "not-found"
	ClassAccessDenied ErrorClass = "access-denied"
	ClassTransient    ErrorClass = "transient"
)

// ObjectError is a failed storage operation on one object.
type ObjectError struct {
	Op     string
	Bucket string
	Key    string
	Class  ErrorClass
	Err    error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s s3://%s/%s (%s): %v", e.Op, e.Bucket, e.Key, e.Class, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// Classify maps an S3 error to an ErrorClass.
func Classify(err error) ErrorClass {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ClassNotFound
	}
	var noSuchBucket *s3types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return ClassNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return ClassNotFound
		case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId":
			return ClassAccessDenied
		}
	}
	return ClassTransient
}

// S3Store reads and writes objects in S3. It implements Fetcher and Writer.
type S3Store struct {
	client S3API
}

// NewS3Store creates an S3Store.
func NewS3Store(client S3API) *S3Store {
	return &S3Store{client: client}
}

// Fetch downloads an object into memory.
func (s *S3Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("Downloading from S3")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &ObjectError{Op: "GetObject", Bucket: bucket, Key: key, Class: Classify(err), Err: err}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &ObjectError{Op: "GetObject", Bucket: bucket, Key: key, Class: ClassTransient, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}

// Write uploads body as a single PutObject call.
func (s *S3Store) Write(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	zerolog.Ctx(ctx).Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(body)).
		Msg("Uploading to S3")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return &ObjectError{Op: "PutObject", Bucket: bucket, Key: key, Class: Classify(err), Err: err}
	}
	return nil
}
