// Package objstore defines the contract between callers and a remote object
// store such as S3 or MinIO.
//
// The package is intentionally small. It provides:
//
//   - ObjectRef, the (bucket, key) identity of a remote object
//   - ObjectInfo and PutOptions, the metadata exchanged with the store
//   - Store, the capability interface every backing client implements
//
// Any conforming implementation (a network client, the disk cache in the
// cache package, or an in-memory test double) can be substituted for another
// without the caller knowing which one it holds.
//
// # Errors
//
// Implementations report a missing object with an error carrying
// errors.CodeNotFound from github.com/jmgilman/go/errors. Use IsNotFound to
// branch on absence versus transport failure:
//
//	data, err := store.GetBytes(ctx, ref)
//	if objstore.IsNotFound(err) {
//	    // object is absent
//	}
package objstore
