package cache

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/objcache/objstore"
	"golang.org/x/sync/singleflight"
)

// Store is a read-through disk cache in front of a remote objstore.Store.
//
// GetBytes is served from the cache root when a file for the reference
// exists and populates the cache on a miss. PutBytes and Delete are forwarded
// to the remote store and invalidate the local copy. Exists, Head and
// GetStream are forwarded unchanged. After every populate the oldest entries
// are evicted until the cached bytes fit within the configured capacity.
//
// Local cache failures never fail a request; they are logged and counted.
// A Store must be the only writer of its cache root.
type Store struct {
	remote   objstore.Store
	dir      string
	maxBytes uint64

	storage *storage
	index   *Index
	metrics *Metrics
	logger  *Logger
	now     func() time.Time

	// mu serializes cache mutations: file writes, index updates, eviction
	// and invalidation.
	mu sync.Mutex
	// generation is bumped on every invalidation. A fetch only populates the
	// cache if no invalidation happened while it was in flight.
	generation uint64
	// stale holds names whose file could not be removed. Such files are not
	// served until a later write or removal replaces them.
	stale map[string]struct{}

	flights singleflight.Group
}

// Stats describes the state of a Store.
type Stats struct {
	MetricsSnapshot

	Entries     int
	BytesStored uint64
	MaxBytes    uint64
}

// CachedEntry describes one file held by the cache.
type CachedEntry struct {
	IndexEntry

	// Ref is the object the file belongs to. It is the zero value when the
	// name is a hashed long name that cannot be reversed.
	Ref objstore.ObjectRef
}

// New creates a Store that caches objects from remote under dir, holding at
// most maxBytes of object data. Existing files under dir are adopted as
// cache entries, oldest modification time first, and evicted down to
// maxBytes. A maxBytes of zero disables caching in effect.
func New(remote objstore.Store, dir string, maxBytes uint64, opts ...Option) (*Store, error) {
	if remote == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "remote store is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fsys := o.fs
	if fsys == nil {
		if dir == "" {
			return nil, errors.New(errors.CodeInvalidConfig, "cache directory is required")
		}

		var err error
		fsys, err = openLocal(dir)
		if err != nil {
			return nil, errors.WrapWithContext(err, CodeCacheIO, "failed to open cache directory", map[string]interface{}{
				"dir": dir,
			})
		}
	}

	s := &Store{
		remote:   remote,
		dir:      dir,
		maxBytes: maxBytes,
		storage:  newStorage(fsys),
		index:    NewIndex(),
		stale:    make(map[string]struct{}),
		metrics:  NewMetrics(),
		logger:   o.logger.With("component", "cache"),
		now:      o.now,
	}

	if err := s.load(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// load adopts the files already present in the cache root.
func (s *Store) load(ctx context.Context) error {
	files, err := s.storage.scan()
	if err != nil {
		return errors.WrapWithContext(err, CodeCacheIO, "failed to scan cache directory", map[string]interface{}{
			"dir": s.dir,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].name < files[j].name
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range files {
		s.index.Add(f.name, f.size, f.modTime)
	}

	log := s.logger.WithOperation("load")
	s.evictLocked(ctx, log)

	log.Info(ctx, "cache loaded",
		"entries", s.index.Len(),
		"bytes", s.index.TotalSize(),
		"max_bytes", s.maxBytes)
	return nil
}

// GetBytes returns the content of ref, from the cache when present and from
// the remote store otherwise. Concurrent misses for the same reference share
// a single remote fetch.
func (s *Store) GetBytes(ctx context.Context, ref objstore.ObjectRef) ([]byte, error) {
	name, err := FileName(ref)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithOperation("get").WithRef(ref)

	if data, ok := s.lookup(ctx, log, name); ok {
		return data, nil
	}

	v, err, shared := s.flights.Do(name, func() (interface{}, error) {
		// Another flight may have populated the cache since the first lookup
		if data, ok := s.lookup(ctx, log, name); ok {
			return data, nil
		}
		return s.fetch(ctx, log, ref, name)
	})
	if err != nil {
		return nil, err
	}

	data := v.([]byte)
	if shared {
		data = bytes.Clone(data)
	}
	return data, nil
}

// lookup reads name from the cache root.
func (s *Store) lookup(ctx context.Context, log *Logger, name string) ([]byte, bool) {
	if s.isStale(name) {
		return nil, false
	}

	data, err := s.storage.read(name)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			s.cacheFault(ctx, log, newCacheIOError(err, "read", name))
		}
		return nil, false
	}

	s.metrics.RecordHit(int64(len(data)))
	log.Debug(ctx, "cache hit", "name", name, "size", len(data))

	s.adopt(ctx, log, name, uint64(len(data)))
	return data, true
}

// adopt indexes a file that is on disk but unknown to the index.
func (s *Store) adopt(ctx context.Context, log *Logger, name string, size uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index.Contains(name) {
		return
	}
	if _, ok := s.stale[name]; ok {
		return
	}

	// The file may have been invalidated since it was read
	if _, err := s.storage.fs.Stat(name); err != nil {
		return
	}

	s.index.Add(name, size, s.now())
	log.Debug(ctx, "adopted cache file", "name", name, "size", size)
	s.evictLocked(ctx, log)
}

// fetch downloads ref from the remote store and populates the cache.
func (s *Store) fetch(ctx context.Context, log *Logger, ref objstore.ObjectRef, name string) ([]byte, error) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	data, err := s.remote.GetBytes(ctx, ref)
	s.metrics.RecordMiss(int64(len(data)))
	if err != nil {
		log.Debug(ctx, "cache miss failed", "error", err)
		return nil, err
	}

	log.Debug(ctx, "cache miss", "name", name, "size", len(data))
	s.populate(ctx, log, name, data, gen)
	return data, nil
}

// populate stores data under name unless the cache was invalidated after gen
// was observed.
func (s *Store) populate(ctx context.Context, log *Logger, name string, data []byte, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		log.Debug(ctx, "skipping populate after invalidation", "name", name)
		return
	}

	if err := s.storage.write(name, data); err != nil {
		s.cacheFault(ctx, log, newCacheIOError(err, "write", name))
		return
	}

	// The rename replaced any leftover file
	delete(s.stale, name)
	s.index.Add(name, uint64(len(data)), s.now())
	s.evictLocked(ctx, log)
}

// evictLocked removes the oldest entries until the cache fits within
// maxBytes. s.mu must be held.
func (s *Store) evictLocked(ctx context.Context, log *Logger) {
	for _, entry := range s.index.EvictOver(s.maxBytes) {
		if !s.removeLocked(ctx, log, "evict", entry.Name) {
			continue
		}
		s.metrics.RecordEviction(int64(entry.Size))
		log.Debug(ctx, "evicted cache entry", "name", entry.Name, "size", entry.Size)
	}

	// Retry files left behind by earlier failures
	for name := range s.stale {
		if !s.index.Contains(name) {
			if err := s.storage.remove(name); err == nil {
				delete(s.stale, name)
			}
		}
	}
}

// removeLocked deletes the file for name. On failure the name is marked
// stale so the leftover file is never served. s.mu must be held.
func (s *Store) removeLocked(ctx context.Context, log *Logger, op, name string) bool {
	if err := s.storage.remove(name); err != nil {
		s.stale[name] = struct{}{}
		s.cacheFault(ctx, log, newCacheIOError(err, op, name))
		return false
	}
	delete(s.stale, name)
	return true
}

func (s *Store) isStale(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stale[name]
	return ok
}

// invalidate drops any cached copy of name and prevents in-flight fetches
// from writing one.
func (s *Store) invalidate(ctx context.Context, log *Logger, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.flights.Forget(name)
	s.index.Remove(name)
	s.removeLocked(ctx, log, "remove", name)
}

func (s *Store) cacheFault(ctx context.Context, log *Logger, err error) {
	s.metrics.RecordError()
	log.Warn(ctx, "cache I/O failed", "error", err)
}

// PutBytes writes data to the remote store and drops any cached copy of ref.
// The cache is not populated with data.
func (s *Store) PutBytes(ctx context.Context, ref objstore.ObjectRef, data []byte, opts objstore.PutOptions) error {
	name, err := FileName(ref)
	if err != nil {
		return err
	}

	err = s.remote.PutBytes(ctx, ref, data, opts)

	// A failed put may still have reached the remote store
	s.invalidate(ctx, s.logger.WithOperation("put").WithRef(ref), name)
	return err
}

// Delete deletes ref from the remote store and removes any cached copy.
// Deleting an object that is not cached is not an error.
func (s *Store) Delete(ctx context.Context, ref objstore.ObjectRef) error {
	name, err := FileName(ref)
	if err != nil {
		return err
	}

	err = s.remote.Delete(ctx, ref)
	s.invalidate(ctx, s.logger.WithOperation("delete").WithRef(ref), name)
	return err
}

// Exists forwards to the remote store.
func (s *Store) Exists(ctx context.Context, ref objstore.ObjectRef) (bool, error) {
	return s.remote.Exists(ctx, ref)
}

// Head forwards to the remote store.
func (s *Store) Head(ctx context.Context, ref objstore.ObjectRef) (*objstore.ObjectInfo, error) {
	return s.remote.Head(ctx, ref)
}

// GetStream forwards to the remote store. Streams are never cached.
func (s *Store) GetStream(ctx context.Context, ref objstore.ObjectRef) (io.ReadCloser, error) {
	return s.remote.GetStream(ctx, ref)
}

// Contains reports whether ref is currently indexed.
func (s *Store) Contains(ref objstore.ObjectRef) bool {
	name, err := FileName(ref)
	if err != nil {
		return false
	}
	return s.index.Contains(name)
}

// Entries returns the indexed entries, oldest first.
func (s *Store) Entries() []CachedEntry {
	indexed := s.index.Entries()
	entries := make([]CachedEntry, 0, len(indexed))
	for _, e := range indexed {
		ref, _ := ParseFileName(e.Name)
		entries = append(entries, CachedEntry{IndexEntry: e, Ref: ref})
	}
	return entries
}

// Purge removes every indexed entry from the cache root. It returns the
// first removal failure, if any; remaining entries are still attempted.
func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logger.WithOperation("purge")
	s.generation++

	var first error
	for _, e := range s.index.Entries() {
		s.flights.Forget(e.Name)
		s.index.Remove(e.Name)
		if err := s.storage.remove(e.Name); err != nil {
			s.stale[e.Name] = struct{}{}
			cerr := newCacheIOError(err, "remove", e.Name)
			s.cacheFault(ctx, log, cerr)
			if first == nil {
				first = cerr
			}
		}
	}

	log.Info(ctx, "cache purged")
	return first
}

// Stats returns the cache counters and current occupancy.
func (s *Store) Stats() Stats {
	return Stats{
		MetricsSnapshot: s.metrics.Snapshot(),
		Entries:         s.index.Len(),
		BytesStored:     s.index.TotalSize(),
		MaxBytes:        s.maxBytes,
	}
}

// Dir returns the cache directory passed to New.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the cache capacity in bytes.
func (s *Store) MaxBytes() uint64 {
	return s.maxBytes
}

var _ objstore.Store = (*Store)(nil)
