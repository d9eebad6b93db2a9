package transfer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// mockStore is a function-field store.ObjectStore for tests. Unset
// operations fail loudly so tests only exercise what they configure.
type mockStore struct {
	listFunc   func(ctx context.Context, prefix string) ([]store.Object, error)
	existsFunc func(ctx context.Context, key string) (bool, error)
	fetchFunc  func(ctx context.Context, key string) (*store.Blob, error)
	putFunc    func(ctx context.Context, key string, blob *store.Blob, metadata map[string]string) error
	removeFunc func(ctx context.Context, key string) error
}

func (m *mockStore) List(ctx context.Context, prefix string) ([]store.Object, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, prefix)
	}
	return nil, fmt.Errorf("List not implemented")
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, key)
	}
	return false, fmt.Errorf("Exists not implemented")
}

func (m *mockStore) Fetch(ctx context.Context, key string) (*store.Blob, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, key)
	}
	return nil, fmt.Errorf("Fetch not implemented")
}

func (m *mockStore) Put(ctx context.Context, key string, blob *store.Blob, metadata map[string]string) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, key, blob, metadata)
	}
	return fmt.Errorf("Put not implemented")
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, key)
	}
	return fmt.Errorf("Remove not implemented")
}

// memStore is an in-memory store.ObjectStore for whole-engine tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string]*store.Blob
	meta    map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[string]*store.Blob),
		meta:    make(map[string]map[string]string),
	}
}

func (m *memStore) seed(key string, data []byte, etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &store.Blob{Data: data, ETag: etag}
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *memStore) metadataFor(key string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta[key]
}

func (m *memStore) List(ctx context.Context, prefix string) ([]store.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	objects := make([]store.Object, 0, len(keys))
	for _, k := range keys {
		blob := m.objects[k]
		objects = append(objects, store.Object{Key: k, Size: int64(len(blob.Data)), ETag: blob.ETag})
	}
	return objects, nil
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStore) Fetch(ctx context.Context, key string) (*store.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.objects[key]
	if !ok {
		return nil, store.NewError(store.OpFetch, key, fmt.Errorf("no such key"))
	}
	return &store.Blob{Data: blob.Data, ETag: blob.ETag, ContentType: blob.ContentType}, nil
}

func (m *memStore) Put(ctx context.Context, key string, blob *store.Blob, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &store.Blob{Data: blob.Data, ETag: blob.ETag, ContentType: blob.ContentType}
	m.meta[key] = metadata
	return nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return store.NewError(store.OpDelete, key, fmt.Errorf("no such key"))
	}
	delete(m.objects, key)
	return nil
}

// recordingObserver captures observer events for assertions. Reads are
// only safe after the run finished.
type recordingObserver struct {
	mu          sync.Mutex
	started     []string
	transferred []string
	skipped     []string
	failed      []string
	mismatches  []string
	existsErrs  []string
}

func (r *recordingObserver) TransferStarted(key string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, key)
}

func (r *recordingObserver) Transferred(key string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transferred = append(r.transferred, key)
}

func (r *recordingObserver) Skipped(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, key)
}

func (r *recordingObserver) Failed(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, key)
}

func (r *recordingObserver) IntegrityMismatch(key, etag, digest string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mismatches = append(r.mismatches, key)
}

func (r *recordingObserver) ExistsCheckFailed(key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsErrs = append(r.existsErrs, key)
}
