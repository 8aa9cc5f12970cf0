package objstore

import (
	"time"

	"github.com/jmgilman/go/errors"
)

// ObjectRef identifies an object in a remote store.
// It is a comparable value type and may be used as a map key.
type ObjectRef struct {
	// Bucket is the name of the bucket holding the object.
	Bucket string
	// Key is the object key within the bucket.
	Key string
}

// NewObjectRef returns an ObjectRef for the given bucket and key.
func NewObjectRef(bucket, key string) ObjectRef {
	return ObjectRef{Bucket: bucket, Key: key}
}

// String returns the ref in "bucket/key" form for logs and error messages.
func (r ObjectRef) String() string {
	return r.Bucket + "/" + r.Key
}

// Validate reports an error if the bucket or key is empty.
func (r ObjectRef) Validate() error {
	if r.Bucket == "" {
		return errors.New(errors.CodeInvalidInput, "bucket is required")
	}
	if r.Key == "" {
		return errors.WithContext(
			errors.New(errors.CodeInvalidInput, "key is required"),
			"bucket", r.Bucket,
		)
	}
	return nil
}

// ObjectInfo describes a remote object as reported by Store.Head.
type ObjectInfo struct {
	Ref          ObjectRef
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
	// Metadata holds user-defined metadata attached at upload time.
	Metadata map[string]string
}

// PutOptions carries the optional attributes of an upload.
type PutOptions struct {
	// ContentType is the MIME type stored with the object.
	// Implementations default to "application/octet-stream" when empty.
	ContentType string
	// Metadata is user-defined metadata stored with the object.
	Metadata map[string]string
}

// DefaultContentType is used when PutOptions.ContentType is empty.
const DefaultContentType = "application/octet-stream"

// ContentTypeOrDefault returns o.ContentType, or DefaultContentType if unset.
func (o PutOptions) ContentTypeOrDefault() string {
	if o.ContentType == "" {
		return DefaultContentType
	}
	return o.ContentType
}
