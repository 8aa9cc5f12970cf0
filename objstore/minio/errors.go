package minio

import (
	"github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/objcache/objstore"
)

// translate converts a MinIO error into a platform error for ref.
// Absence maps to CodeNotFound so callers can use objstore.IsNotFound.
func translate(err error, op string, ref objstore.ObjectRef) error {
	if err == nil {
		return nil
	}

	code := errors.CodeNetwork
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		code = errors.CodeNotFound
	case "AccessDenied":
		code = errors.CodeForbidden
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		code = errors.CodeUnauthorized
	case "InvalidBucketName", "XMinioInvalidObjectName":
		code = errors.CodeInvalidInput
	}

	return errors.WrapWithContext(err, code, "minio "+op+" failed", map[string]interface{}{
		"bucket": ref.Bucket,
		"key":    ref.Key,
	})
}
