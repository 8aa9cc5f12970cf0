// Package testutil provides test doubles shared by the objcache test suites.
package testutil

import (
	"bytes"
	"context"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/jmgilman/go/objcache/objstore"
)

// Operation names recorded by MemoryStore.
const (
	OpGetBytes  = "GetBytes"
	OpGetStream = "GetStream"
	OpPutBytes  = "PutBytes"
	OpHead      = "Head"
	OpExists    = "Exists"
	OpDelete    = "Delete"
)

// MemoryStore is an in-memory objstore.Store that records every call.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[objstore.ObjectRef]memoryObject
	calls   map[string]map[objstore.ObjectRef]int
	errs    map[string]error

	// GetHook, if set, runs at the start of every GetBytes call before the
	// store lock is taken. Tests use it to hold a fetch in flight.
	GetHook func(ref objstore.ObjectRef)
}

type memoryObject struct {
	data     []byte
	opts     objstore.PutOptions
	modified time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[objstore.ObjectRef]memoryObject),
		calls:   make(map[string]map[objstore.ObjectRef]int),
		errs:    make(map[string]error),
	}
}

// Seed stores data under ref without recording a call.
func (m *MemoryStore) Seed(ref objstore.ObjectRef, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = memoryObject{
		data:     bytes.Clone(data),
		opts:     objstore.PutOptions{ContentType: objstore.DefaultContentType},
		modified: time.Now(),
	}
}

// FailWith makes every subsequent call to op return err. A nil err clears it.
func (m *MemoryStore) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Calls returns how many times op was invoked for ref.
func (m *MemoryStore) Calls(op string, ref objstore.ObjectRef) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op][ref]
}

// TotalCalls returns how many times op was invoked for any ref.
func (m *MemoryStore) TotalCalls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls[op] {
		total += n
	}
	return total
}

// Object returns the stored content and options for ref.
func (m *MemoryStore) Object(ref objstore.ObjectRef) ([]byte, objstore.PutOptions, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[ref]
	if !ok {
		return nil, objstore.PutOptions{}, false
	}
	return bytes.Clone(obj.data), obj.opts, true
}

// record counts a call and returns the injected error for op, if any.
// Callers must hold m.mu.
func (m *MemoryStore) record(op string, ref objstore.ObjectRef) error {
	if m.calls[op] == nil {
		m.calls[op] = make(map[objstore.ObjectRef]int)
	}
	m.calls[op][ref]++
	return m.errs[op]
}

// GetBytes implements objstore.Store.
func (m *MemoryStore) GetBytes(_ context.Context, ref objstore.ObjectRef) ([]byte, error) {
	if m.GetHook != nil {
		m.GetHook(ref)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetBytes, ref); err != nil {
		return nil, err
	}
	obj, ok := m.objects[ref]
	if !ok {
		return nil, objstore.NotFound(ref)
	}
	return bytes.Clone(obj.data), nil
}

// GetStream implements objstore.Store.
func (m *MemoryStore) GetStream(_ context.Context, ref objstore.ObjectRef) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetStream, ref); err != nil {
		return nil, err
	}
	obj, ok := m.objects[ref]
	if !ok {
		return nil, objstore.NotFound(ref)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// PutBytes implements objstore.Store.
func (m *MemoryStore) PutBytes(_ context.Context, ref objstore.ObjectRef, data []byte, opts objstore.PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpPutBytes, ref); err != nil {
		return err
	}
	opts.ContentType = opts.ContentTypeOrDefault()
	opts.Metadata = maps.Clone(opts.Metadata)
	m.objects[ref] = memoryObject{data: bytes.Clone(data), opts: opts, modified: time.Now()}
	return nil
}

// Head implements objstore.Store.
func (m *MemoryStore) Head(_ context.Context, ref objstore.ObjectRef) (*objstore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpHead, ref); err != nil {
		return nil, err
	}
	obj, ok := m.objects[ref]
	if !ok {
		return nil, objstore.NotFound(ref)
	}
	return &objstore.ObjectInfo{
		Ref:          ref,
		Size:         int64(len(obj.data)),
		ContentType:  obj.opts.ContentType,
		LastModified: obj.modified,
		Metadata:     maps.Clone(obj.opts.Metadata),
	}, nil
}

// Exists implements objstore.Store.
func (m *MemoryStore) Exists(_ context.Context, ref objstore.ObjectRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpExists, ref); err != nil {
		return false, err
	}
	_, ok := m.objects[ref]
	return ok, nil
}

// Delete implements objstore.Store.
func (m *MemoryStore) Delete(_ context.Context, ref objstore.ObjectRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpDelete, ref); err != nil {
		return err
	}
	delete(m.objects, ref)
	return nil
}

var _ objstore.Store = (*MemoryStore)(nil)
