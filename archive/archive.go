// Package archive ships finalized shard targets to long-term object
// storage once a run completes. Uploads are a post-stream step: the
// engine never blocks on storage while lines are flowing.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// SchemeS3 prefixes archive destinations served by the S3 uploader.
const SchemeS3 = "s3://"

// Uploader stores produced target files under a day partition.
type Uploader interface {
	// Upload stores the file at path under the given day. Day is a
	// calendar date or the error-target pseudo day.
	Upload(ctx context.Context, day, path string) error
	// Close releases resources held by the uploader.
	Close() error
}

// ParseS3Path parses a destination in format "s3://bucket/prefix" or
// "s3://bucket".
func ParseS3Path(dest string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(dest, SchemeS3) {
		return "", "", fmt.Errorf("archive destination must start with %s: %q", SchemeS3, dest)
	}
	parts := strings.SplitN(strings.TrimPrefix(dest, SchemeS3), "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	if bucket == "" {
		return "", "", errors.New("archive destination has no bucket")
	}
	return bucket, prefix, nil
}

// Key computes the object key for a target file.
// Format: <prefix>/day=<day>/<basename>, prefix omitted when empty.
func Key(prefix, day, path string) string {
	if prefix == "" {
		return fmt.Sprintf("day=%s/%s", day, filepath.Base(path))
	}
	return fmt.Sprintf("%s/day=%s/%s", prefix, day, filepath.Base(path))
}

// StubUploader records Upload calls for testing.
type StubUploader struct {
	mu      sync.Mutex
	Uploads []StubUpload

	// Err, when set, is returned by every Upload call.
	Err error
}

// StubUpload is a recorded upload for testing.
type StubUpload struct {
	Day  string
	Path string
}

// NewStubUploader creates a new stub uploader.
func NewStubUploader() *StubUploader {
	return &StubUploader{}
}

// Upload implements Uploader by recording the call.
func (u *StubUploader) Upload(_ context.Context, day, path string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	u.Uploads = append(u.Uploads, StubUpload{Day: day, Path: path})
	return nil
}

// Close implements Uploader.
func (u *StubUploader) Close() error {
	return nil
}

// Verify StubUploader implements Uploader.
var _ Uploader = (*StubUploader)(nil)
