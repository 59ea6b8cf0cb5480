package storage

import (
	"fmt"
	"strings"
)

// URI represents a parsed object URI like s3://bucket/path/to/object
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

func (u URI) String() string {
	return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Bucket, u.Key)
}

// ParseURI parses an s3:// or gs:// URI into bucket and key
func ParseURI(uri string) (URI, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok || (scheme != "s3" && scheme != "gs") {
		return URI{}, fmt.Errorf("invalid object URI %q: must start with s3:// or gs://", uri)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("invalid object URI %q: missing bucket name", uri)
	}
	if key == "" {
		return URI{}, fmt.Errorf("invalid object URI %q: missing object key", uri)
	}

	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// IsS3URI checks if a path is an S3 URI
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// IsGCSURI checks if a path is a Google Cloud Storage URI
func IsGCSURI(path string) bool {
	return strings.HasPrefix(path, "gs://")
}
