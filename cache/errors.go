package cache

import (
	"github.com/jmgilman/go/errors"
)

// CodeCacheIO identifies failures of the local cache directory.
// These errors are logged and counted but never returned from read or write
// operations; they only surface from New.
const CodeCacheIO errors.ErrorCode = "CACHE_IO_ERROR"

// newCacheIOError wraps a local filesystem failure with the operation and
// cache file name that caused it.
func newCacheIOError(err error, op, name string) errors.PlatformError {
	return errors.WrapWithContext(err, CodeCacheIO, "cache "+op+" failed", map[string]interface{}{
		"op":   op,
		"name": name,
	})
}
