package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ObjectPutter is the subset of the S3 client used to upload snapshots.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot is a point-in-time copy of both collections.
type Snapshot struct {
	TakenAt time.Time                  `json:"takenAt"`
	Users   map[string]models.Document `json:"users"`
	Groups  map[string]models.Document `json:"groups"`
}

// ObjectKey names the snapshot object for time t under prefix.
func ObjectKey(prefix string, t time.Time) string {
	return path.Join(prefix, fmt.Sprintf("scim-%s.json", t.UTC().Format("20060102T150405Z")))
}

// Upload writes snap to bucket and returns the object key.
func Upload(ctx context.Context, client ObjectPutter, bucket, prefix string, snap Snapshot) (string, error) {
	if bucket == "" {
		return "", errors.New("backup bucket is not configured")
	}

	if snap.Users == nil {
		snap.Users = map[string]models.Document{}
	}
	if snap.Groups == nil {
		snap.Groups = map[string]models.Document{}
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	key := ObjectKey(prefix, snap.TakenAt)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("uploading s3://%s/%s: %s: %w", bucket, key, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}
	return key, nil
}
