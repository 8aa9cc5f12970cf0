package objstore

import (
	"io/fs"

	"github.com/jmgilman/go/errors"
)

// NotFound returns a CodeNotFound error for ref.
func NotFound(ref ObjectRef) errors.PlatformError {
	return errors.WithContextMap(
		errors.Newf(errors.CodeNotFound, "object %s not found", ref),
		map[string]interface{}{
			"bucket": ref.Bucket,
			"key":    ref.Key,
		},
	)
}

// IsNotFound reports whether err signals that an object does not exist.
// It accepts errors carrying errors.CodeNotFound as well as fs.ErrNotExist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.GetCode(err) == errors.CodeNotFound {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
