// Package cache provides a disk-backed read-through cache in front of an
// objstore.Store.
//
// The cache is designed to reduce latency and request cost for objects that
// are read repeatedly. It wraps a remote store (the delegate) together with a
// cache directory and a capacity bound, and itself implements objstore.Store
// so it can be dropped in wherever the delegate was used.
//
// # Operations
//
//   - GetBytes: read-through. A hit is served from disk without contacting the
//     delegate. A miss fetches from the delegate, persists the bytes, and runs
//     eviction.
//   - PutBytes: write-through. Always reaches the delegate, never populates the
//     cache, and invalidates any cached copy of the object.
//   - Delete: removes the cached copy and deletes the remote object.
//   - Exists, Head, GetStream: pass-through. The cache is neither consulted nor
//     populated.
//
// # Cache Layout
//
// Each cached object is a single file directly under the cache root, named
// "<bucket>_<key>" after escaping (see FileName). Files whose names begin with
// a dot are reserved for in-progress writes.
//
// # Eviction
//
// Entries are evicted in insertion order (FIFO) whenever the total size of
// cached files exceeds the configured capacity. Reads do not refresh an
// entry's position. An object larger than the capacity is written and then
// immediately evicted by the same pass.
//
// # Failure Model
//
// Local disk failures never fail a read. A failed persist returns the fetched
// bytes as if the cache were absent; a failed cache read falls back to the
// delegate. Such failures are logged and counted in Stats. Errors from the
// delegate are returned unmodified.
//
// # Thread Safety
//
// Store is safe for concurrent use. Concurrent misses for the same object are
// coalesced into a single delegate call, and a single lock serializes file
// writes, index updates, and eviction.
package cache
