// Package event decodes storage notification envelopes into a processing trigger.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pricofy/doc-translation-worker/internal/domain"
)

var (
	// ErrNoRecords is returned when the envelope has no records.
	ErrNoRecords = errors.New("event contains no records")
	// ErrMissingBucket is returned when the first record names no bucket.
	ErrMissingBucket = errors.New("record is missing s3.bucket.name")
	// ErrMissingKey is returned when the first record names no object key.
	ErrMissingKey = errors.New("record is missing s3.object.key")
)

// Decode extracts the trigger from an S3 event notification.
// Only the first record is honored; RecordCount reports how many arrived.
func Decode(raw json.RawMessage) (domain.Trigger, error) {
	var evt events.S3Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return domain.Trigger{}, fmt.Errorf("failed to parse S3 event: %w", err)
	}

	if len(evt.Records) == 0 {
		return domain.Trigger{}, ErrNoRecords
	}

	record := evt.Records[0]
	if record.S3.Bucket.Name == "" {
		return domain.Trigger{}, ErrMissingBucket
	}
	if record.S3.Object.Key == "" {
		return domain.Trigger{}, ErrMissingKey
	}

	// Keys arrive form-encoded: spaces as '+', others as %XX.
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return domain.Trigger{}, fmt.Errorf("invalid object key encoding %q: %w", record.S3.Object.Key, err)
	}

	return domain.Trigger{
		Bucket:      record.S3.Bucket.Name,
		Key:         key,
		RecordCount: len(evt.Records),
	}, nil
}

// NewS3Event builds a single-record notification for bucket and key.
// The key is encoded the way S3 encodes it, so Decode round-trips it.
func NewS3Event(bucket, key string) events.S3Event {
	return events.S3Event{
		Records: []events.S3EventRecord{{
			EventSource: "aws:s3",
			EventName:   "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: bucket},
				Object: events.S3Object{Key: url.QueryEscape(key)},
			},
		}},
	}
}
