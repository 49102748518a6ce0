// Package blob stores uploaded payloads in an S3-compatible bucket.
package blob

import (
	"context"
	"io"
	"strings"
)

// MetaOriginalName is the user metadata key holding the uploaded filename.
// The content type travels as the object's own Content-Type.
const MetaOriginalName = "Original-Name"

// Object is one payload to store.
type Object struct {
	Key          string
	Body         io.Reader
	Size         int64 // -1 when unknown
	ContentType  string
	OriginalName string
}

// Store is the object store seen by the rest of the service.
type Store interface {
	Bucket() string
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	// CheckBucket fails when the bucket is missing or unreachable.
	CheckBucket(ctx context.Context) error
}

// Key builds the object key "<id>/<name>".
func Key(id, name string) string {
	return id + "/" + name
}

// URL is the reference persisted with the metadata record: "<bucket>/<key>".
func URL(bucket, key string) string {
	return bucket + "/" + key
}

// KeyFromURL reverses URL for the given bucket.
func KeyFromURL(bucket, url string) string {
	return strings.TrimPrefix(url, bucket+"/")
}
