package objstore

import (
	"context"
	"io"
)

// Store is the capability interface of a remote object store.
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// GetBytes returns the full content of the object.
	// Returns an error with errors.CodeNotFound if the object does not exist.
	GetBytes(ctx context.Context, ref ObjectRef) ([]byte, error)

	// GetStream opens the object for streaming. The caller must close the
	// returned reader. Returns an error with errors.CodeNotFound if the object
	// does not exist.
	GetStream(ctx context.Context, ref ObjectRef) (io.ReadCloser, error)

	// PutBytes uploads data as the full content of the object, replacing any
	// existing object with the same ref.
	PutBytes(ctx context.Context, ref ObjectRef, data []byte, opts PutOptions) error

	// Head returns object metadata without fetching its content.
	// Returns an error with errors.CodeNotFound if the object does not exist.
	Head(ctx context.Context, ref ObjectRef) (*ObjectInfo, error)

	// Exists reports whether the object exists. Absence is not an error;
	// only transport failures are returned.
	Exists(ctx context.Context, ref ObjectRef) (bool, error)

	// Delete removes the object. Deleting an absent object is not an error.
	Delete(ctx context.Context, ref ObjectRef) error
}
